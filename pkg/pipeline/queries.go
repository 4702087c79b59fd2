package pipeline

import "fmt"

// GenerateQueries produces the fixed query set run against every workload.
// The first two queries reference the workload by name; the rest probe
// themes common to every API surface.
func GenerateQueries(workload string) []string {
	return []string{
		fmt.Sprintf("API endpoints for %s", workload),
		fmt.Sprintf("authentication methods in %s", workload),
		"data models and schemas",
		"rate limiting and quotas",
		"error handling and status codes",
	}
}
