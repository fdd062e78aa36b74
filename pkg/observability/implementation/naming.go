package implementation

import "strings"

var nameReplacer = strings.NewReplacer(".", "_", "-", "_", " ", "_")

// expositionName maps a dotted metric name to its Prometheus name: dots become
// underscores, counters end in _total and timers in _seconds.
func expositionName(name string, kind metricKind) string {
	n := nameReplacer.Replace(name)
	switch kind {
	case kindCounter:
		if !strings.HasSuffix(n, "_total") {
			n += "_total"
		}
	case kindTimer:
		if !strings.HasSuffix(n, "_seconds") {
			n += "_seconds"
		}
	}
	return n
}
