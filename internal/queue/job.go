package queue

import (
	"fmt"
	"strings"

	"github.com/redis/go-redis/v9"
)

// AnalysisJob asks a worker to analyze one repository checkout.
type AnalysisJob struct {
	Owner       string
	Name        string
	Root        string
	Profile     string
	UserContext string
	CommitsFile string
	RunID       int64
	TraceID     string
	Attempt     int
}

func (j AnalysisJob) RepoAnalysisID() string {
	return j.Owner + "_" + j.Name
}

func (j AnalysisJob) validate() error {
	var missing []string
	if strings.TrimSpace(j.Owner) == "" {
		missing = append(missing, "owner")
	}
	if strings.TrimSpace(j.Name) == "" {
		missing = append(missing, "name")
	}
	if strings.TrimSpace(j.Root) == "" {
		missing = append(missing, "root")
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing %s", strings.Join(missing, ", "))
	}
	return nil
}

// NewClient connects to the Redis server at url ("redis://host:6379/0").
func NewClient(url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(strings.TrimSpace(url))
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	return redis.NewClient(opts), nil
}
