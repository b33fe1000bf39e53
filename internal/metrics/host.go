package metrics

import (
	"os"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/process"
)

// HostCollector снимает загрузку CPU и память процесса в момент сбора метрик.
// Проценты CPU считаются от предыдущего сбора, первый сбор может вернуть 0.
type HostCollector struct {
	proc *process.Process

	processCPU *prometheus.Desc
	hostCPU    *prometheus.Desc
	rss        *prometheus.Desc
}

// NewHostCollector создаёт коллектор для текущего процесса
func NewHostCollector() (*HostCollector, error) {
	proc, err := process.NewProcess(int32(os.Getpid()))
	if err != nil {
		return nil, err
	}
	return &HostCollector{
		proc:       proc,
		processCPU: prometheus.NewDesc("blockpush_process_cpu_percent", "Загрузка CPU процессом сервера.", nil, nil),
		hostCPU:    prometheus.NewDesc("blockpush_host_cpu_percent", "Общая загрузка CPU системы.", nil, nil),
		rss:        prometheus.NewDesc("blockpush_process_rss_bytes", "Резидентная память процесса.", nil, nil),
	}, nil
}

// Describe реализует prometheus.Collector
func (c *HostCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.processCPU
	ch <- c.hostCPU
	ch <- c.rss
}

// Collect реализует prometheus.Collector. Недоступные показатели пропускаются.
func (c *HostCollector) Collect(ch chan<- prometheus.Metric) {
	if v, err := c.proc.Percent(0); err == nil {
		ch <- prometheus.MustNewConstMetric(c.processCPU, prometheus.GaugeValue, v)
	}
	if v, err := cpu.Percent(0, false); err == nil && len(v) > 0 {
		ch <- prometheus.MustNewConstMetric(c.hostCPU, prometheus.GaugeValue, v[0])
	}
	if mem, err := c.proc.MemoryInfo(); err == nil {
		ch <- prometheus.MustNewConstMetric(c.rss, prometheus.GaugeValue, float64(mem.RSS))
	}
}
