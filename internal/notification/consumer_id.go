package notification

import (
	"fmt"
	"os"
	"time"
)

// NewConsumerID builds a consumer name for the reminder consumer group.
func NewConsumerID() string {
	host, err := os.Hostname()
	if err != nil || host == "" {
		host = "notifier"
	}
	return fmt.Sprintf("%s-%d-%d", host, os.Getpid(), time.Now().UnixNano())
}
