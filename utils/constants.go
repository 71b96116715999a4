// File: utils/constants.go
package utils

import "time"

// PassLockKey is the Redis key guarding a notification pass across instances.
const PassLockKey = "freshtrack:notification:pass"

// PassLockTTL bounds how long a crashed instance can hold the pass lock.
const PassLockTTL = 30 * time.Minute

// DefaultPort is used when APP_PORT is empty.
const DefaultPort = "8080"
