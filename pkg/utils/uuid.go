package utils

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// GenerateOrderCode returns ORD-YYYYMMDD-XXXXXX with a random hex suffix
func GenerateOrderCode(now time.Time) string {
	suffix := strings.ReplaceAll(uuid.New().String(), "-", "")[:6]
	return "ORD-" + now.Format("20060102") + "-" + strings.ToUpper(suffix)
}

// GenerateRequestID returns a short id for request correlation
func GenerateRequestID() string {
	return uuid.New().String()
}

// GenerateMachineCode returns MCH-XXXXXXXX for machines created without a code
func GenerateMachineCode() string {
	suffix := strings.ReplaceAll(uuid.New().String(), "-", "")[:8]
	return "MCH-" + strings.ToUpper(suffix)
}
