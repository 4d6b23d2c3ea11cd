package logger

import (
	"context"
	"runtime"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/disk"
	"github.com/shirou/gopsutil/v3/mem"
	gnet "github.com/shirou/gopsutil/v3/net" //cloudwatch

	"github.com/aws/aws-sdk-go-v2/aws"                              //cloudwatch
	cwtypes "github.com/aws/aws-sdk-go-v2/service/cloudwatch/types" //cloudwatch
)

type endpointStat struct {
	requests int64
	bytes    int64
}

var (
	errorsClient     int64
	errorsBatch      int64
	warnsClient      int64
	warnsBatch       int64
	listingReads     int64
	histogramReads   int64
	overviewReads    int64
	rateLimitHits    int64
	itemsSucceeded   int64
	itemsFailed      int64
	itemsSkipped     int64
	checkpointWrites int64
	exportWrites     int64
	endpoints        sync.Map // map[string]*endpointStat
)

func recordWarn(component string) {
	if strings.Contains(component, "steam") {
		atomic.AddInt64(&warnsClient, 1)
	} else if strings.Contains(component, "batch") {
		atomic.AddInt64(&warnsBatch, 1)
	}
}

func recordError(component string) {
	if strings.Contains(component, "steam") {
		atomic.AddInt64(&errorsClient, 1)
	} else if strings.Contains(component, "batch") {
		atomic.AddInt64(&errorsBatch, 1)
	}
}

func IncrementListingRead(size int) {
	atomic.AddInt64(&listingReads, 1)
	recordEndpoint("listing_page", size)
}

func IncrementHistogramRead(size int) {
	atomic.AddInt64(&histogramReads, 1)
	recordEndpoint("order_histogram", size)
}

func IncrementOverviewRead(size int) {
	atomic.AddInt64(&overviewReads, 1)
	recordEndpoint("price_overview", size)
}

func IncrementRateLimitHit() {
	atomic.AddInt64(&rateLimitHits, 1)
}

func IncrementItemSucceeded() {
	atomic.AddInt64(&itemsSucceeded, 1)
}

func IncrementItemFailed() {
	atomic.AddInt64(&itemsFailed, 1)
}

func IncrementItemSkipped() {
	atomic.AddInt64(&itemsSkipped, 1)
}

func IncrementCheckpointWrite(size int64) {
	atomic.AddInt64(&checkpointWrites, 1)
	recordEndpoint("checkpoint_write", int(size))
}

func IncrementExportWrite(size int64) {
	atomic.AddInt64(&exportWrites, 1)
	recordEndpoint("export_write", int(size))
}

func RecordEndpointMessage(name string, size int) {
	recordEndpoint(name, size)
}

func recordEndpoint(name string, size int) {
	v, _ := endpoints.LoadOrStore(name, &endpointStat{})
	es := v.(*endpointStat)
	atomic.AddInt64(&es.requests, 1)
	atomic.AddInt64(&es.bytes, int64(size))
}

func startReport(ctx context.Context, log *Log, interval time.Duration) {
	ticker := time.NewTicker(interval)
	go func() {
		for {
			select {
			case <-ctx.Done():
				ticker.Stop()
				return
			case <-ticker.C:
				logReport(ctx, log)
			}
		}
	}()
}

// StartReport begins periodic logging of system and request statistics.
// It exposes the internal startReport function for use by other packages.
func StartReport(ctx context.Context, log *Log, interval time.Duration) {
	startReport(ctx, log, interval)
}

func logReport(ctx context.Context, log *Log) {
	cpuPercent, _ := cpu.Percent(0, false)
	memStats, _ := mem.VirtualMemory()
	diskStats, _ := disk.Usage("/")
	netStats, _ := gnet.IOCounters(false)
	endpointData := map[string]map[string]int64{}
	endpoints.Range(func(k, v any) bool {
		name := k.(string)
		es := v.(*endpointStat)
		endpointData[name] = map[string]int64{
			"requests": atomic.LoadInt64(&es.requests),
			"bytes":    atomic.LoadInt64(&es.bytes),
		}
		return true
	})

	cpuPct := 0.0
	if len(cpuPercent) > 0 {
		cpuPct = cpuPercent[0]
	}

	bytesSent := uint64(0)
	bytesRecv := uint64(0)
	if len(netStats) > 0 {
		bytesSent = netStats[0].BytesSent
		bytesRecv = netStats[0].BytesRecv
	}

	fields := Fields{
		"errors_client":     atomic.LoadInt64(&errorsClient),
		"errors_batch":      atomic.LoadInt64(&errorsBatch),
		"warns_client":      atomic.LoadInt64(&warnsClient),
		"warns_batch":       atomic.LoadInt64(&warnsBatch),
		"listing_reads":     atomic.LoadInt64(&listingReads),
		"histogram_reads":   atomic.LoadInt64(&histogramReads),
		"overview_reads":    atomic.LoadInt64(&overviewReads),
		"rate_limit_hits":   atomic.LoadInt64(&rateLimitHits),
		"items_succeeded":   atomic.LoadInt64(&itemsSucceeded),
		"items_failed":      atomic.LoadInt64(&itemsFailed),
		"items_skipped":     atomic.LoadInt64(&itemsSkipped),
		"checkpoint_writes": atomic.LoadInt64(&checkpointWrites),
		"export_writes":     atomic.LoadInt64(&exportWrites),
		"goroutines":        runtime.NumGoroutine(),
		"cpu_percent":       cpuPct,
		"memory_mb":         int64(memStats.Used) / 1024 / 1024,
		"disk_mb":           int64(diskStats.Used) / 1024 / 1024,
		"endpoints":         endpointData,
		"net_bytes_sent":    int64(bytesSent),
		"net_bytes_recv":    int64(bytesRecv),
	}

	log.WithComponent("report").WithFields(fields).Info("runtime report")

	var data []cwtypes.MetricDatum
	data = append(data,
		cwtypes.MetricDatum{MetricName: aws.String("CPUPercent"), Unit: cwtypes.StandardUnitPercent, Value: aws.Float64(cpuPct)},
		cwtypes.MetricDatum{MetricName: aws.String("MemoryMB"), Unit: cwtypes.StandardUnitMegabytes, Value: aws.Float64(float64(memStats.Used) / 1024 / 1024)},
		cwtypes.MetricDatum{MetricName: aws.String("DiskMB"), Unit: cwtypes.StandardUnitMegabytes, Value: aws.Float64(float64(diskStats.Used) / 1024 / 1024)},
		cwtypes.MetricDatum{MetricName: aws.String("ErrorsClient"), Unit: cwtypes.StandardUnitCount, Value: aws.Float64(float64(fields["errors_client"].(int64)))},
		cwtypes.MetricDatum{MetricName: aws.String("ErrorsBatch"), Unit: cwtypes.StandardUnitCount, Value: aws.Float64(float64(fields["errors_batch"].(int64)))},
		cwtypes.MetricDatum{MetricName: aws.String("WarnsClient"), Unit: cwtypes.StandardUnitCount, Value: aws.Float64(float64(fields["warns_client"].(int64)))},
		cwtypes.MetricDatum{MetricName: aws.String("WarnsBatch"), Unit: cwtypes.StandardUnitCount, Value: aws.Float64(float64(fields["warns_batch"].(int64)))},
		cwtypes.MetricDatum{MetricName: aws.String("ListingReads"), Unit: cwtypes.StandardUnitCount, Value: aws.Float64(float64(fields["listing_reads"].(int64)))},
		cwtypes.MetricDatum{MetricName: aws.String("HistogramReads"), Unit: cwtypes.StandardUnitCount, Value: aws.Float64(float64(fields["histogram_reads"].(int64)))},
		cwtypes.MetricDatum{MetricName: aws.String("OverviewReads"), Unit: cwtypes.StandardUnitCount, Value: aws.Float64(float64(fields["overview_reads"].(int64)))},
		cwtypes.MetricDatum{MetricName: aws.String("RateLimitHits"), Unit: cwtypes.StandardUnitCount, Value: aws.Float64(float64(fields["rate_limit_hits"].(int64)))},
		cwtypes.MetricDatum{MetricName: aws.String("ItemsSucceeded"), Unit: cwtypes.StandardUnitCount, Value: aws.Float64(float64(fields["items_succeeded"].(int64)))},
		cwtypes.MetricDatum{MetricName: aws.String("ItemsFailed"), Unit: cwtypes.StandardUnitCount, Value: aws.Float64(float64(fields["items_failed"].(int64)))},
		cwtypes.MetricDatum{MetricName: aws.String("ItemsSkipped"), Unit: cwtypes.StandardUnitCount, Value: aws.Float64(float64(fields["items_skipped"].(int64)))},
		cwtypes.MetricDatum{MetricName: aws.String("CheckpointWrites"), Unit: cwtypes.StandardUnitCount, Value: aws.Float64(float64(fields["checkpoint_writes"].(int64)))},
		cwtypes.MetricDatum{MetricName: aws.String("ExportWrites"), Unit: cwtypes.StandardUnitCount, Value: aws.Float64(float64(fields["export_writes"].(int64)))},
		cwtypes.MetricDatum{MetricName: aws.String("NetBytesSent"), Unit: cwtypes.StandardUnitBytes, Value: aws.Float64(float64(bytesSent))},
		cwtypes.MetricDatum{MetricName: aws.String("NetBytesRecv"), Unit: cwtypes.StandardUnitBytes, Value: aws.Float64(float64(bytesRecv))},
	)

	for name, stats := range endpointData {
		data = append(data,
			cwtypes.MetricDatum{
				MetricName: aws.String("EndpointRequests"),
				Unit:       cwtypes.StandardUnitCount,
				Dimensions: []cwtypes.Dimension{{Name: aws.String("Endpoint"), Value: aws.String(name)}},
				Value:      aws.Float64(float64(stats["requests"])),
			},
			cwtypes.MetricDatum{
				MetricName: aws.String("EndpointBytes"),
				Unit:       cwtypes.StandardUnitBytes,
				Dimensions: []cwtypes.Dimension{{Name: aws.String("Endpoint"), Value: aws.String(name)}},
				Value:      aws.Float64(float64(stats["bytes"])),
			},
		)
	}

	publishMetrics(ctx, data)
}
