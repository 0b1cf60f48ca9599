//go:build linux || darwin || freebsd || netbsd || openbsd

package clock

import (
	"time"

	"golang.org/x/sys/unix"
)

// cpuSource reads CPU time consumed by the whole process.
type cpuSource struct{}

func newCPUSource() (Source, error) {
	var ts unix.Timespec
	if err := unix.ClockGettime(unix.CLOCK_PROCESS_CPUTIME_ID, &ts); err != nil {
		return nil, err
	}
	return cpuSource{}, nil
}

func (cpuSource) Now() int64 {
	var ts unix.Timespec
	if err := unix.ClockGettime(unix.CLOCK_PROCESS_CPUTIME_ID, &ts); err != nil {
		return 0
	}
	return ts.Nano()
}

func (cpuSource) TicksPerSecond() int64 {
	return int64(time.Second)
}
