// Package sysinfo captures a host snapshot that is recorded alongside each
// benchmark run so results can be compared across machines.
package sysinfo

import (
	"fmt"
	"runtime"

	"github.com/shirou/gopsutil/v4/cpu"
	"github.com/shirou/gopsutil/v4/host"
	"github.com/shirou/gopsutil/v4/mem"
)

// Snapshot describes the machine a benchmark run executed on.
type Snapshot struct {
	Hostname      string  `json:"hostname"`
	Platform      string  `json:"platform"`
	CPUModel      string  `json:"cpu_model"`
	CPUCores      int     `json:"cpu_cores"`
	TotalMemoryMB float64 `json:"total_memory_mb"`
	UsedMemoryPct float64 `json:"used_memory_pct"`
	GoVersion     string  `json:"go_version"`
}

// Capture collects the current host snapshot. Partial failures degrade to
// empty fields rather than failing the benchmark.
func Capture() (*Snapshot, error) {
	snap := &Snapshot{
		GoVersion: runtime.Version(),
		CPUCores:  runtime.NumCPU(),
	}

	info, err := host.Info()
	if err != nil {
		return nil, fmt.Errorf("reading host info: %w", err)
	}

	snap.Hostname = info.Hostname
	snap.Platform = fmt.Sprintf("%s %s (%s)", info.Platform, info.PlatformVersion, info.KernelArch)

	if cpus, err := cpu.Info(); err == nil && len(cpus) > 0 {
		snap.CPUModel = cpus[0].ModelName
	}

	if vm, err := mem.VirtualMemory(); err == nil {
		snap.TotalMemoryMB = float64(vm.Total) / (1024 * 1024)
		snap.UsedMemoryPct = vm.UsedPercent
	}

	return snap, nil
}
