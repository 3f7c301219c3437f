package idgen

import (
	"fmt"
	"math/rand"
	"strings"
	"sync"
	"time"

	"nextearnx/pkg/logger"
)

// Snowflake layout: 41-bit millisecond timestamp | 10-bit worker id | 12-bit
// sequence, counted from the custom epoch below.
const (
	epoch          = int64(1704067200000) // 2024-01-01 00:00:00 UTC
	workerIDBits   = 10
	sequenceBits   = 12
	maxWorkerID    = -1 ^ (-1 << workerIDBits)
	maxSequence    = -1 ^ (-1 << sequenceBits)
	workerIDShift  = sequenceBits
	timestampShift = sequenceBits + workerIDBits
)

type Snowflake struct {
	mu        sync.Mutex
	timestamp int64
	workerID  int64
	sequence  int64
}

var (
	defaultGenerator *Snowflake
	once             sync.Once
)

func Init(workerID int64) {
	once.Do(func() {
		if workerID < 0 || workerID > maxWorkerID {
			logger.Fatalf("workerID must be between 0 and %d", maxWorkerID)
		}
		defaultGenerator = &Snowflake{workerID: workerID}
	})
}

func NextID() int64 {
	if defaultGenerator == nil {
		Init(1)
	}
	return defaultGenerator.Generate()
}

func (s *Snowflake) Generate() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now().UnixMilli()

	if now == s.timestamp {
		s.sequence = (s.sequence + 1) & maxSequence
		if s.sequence == 0 {
			// sequence exhausted, spin to the next millisecond
			for now <= s.timestamp {
				now = time.Now().UnixMilli()
			}
		}
	} else {
		s.sequence = 0
	}

	s.timestamp = now

	return ((now - epoch) << timestampShift) |
		(s.workerID << workerIDShift) |
		s.sequence
}

// GenerateTransactionNo returns a ledger transaction number, e.g.
// TXN20240115143052_12345678.
func GenerateTransactionNo() string {
	id := NextID()
	timestamp := time.Now().Format("20060102150405")
	return fmt.Sprintf("TXN%s%08d", timestamp, id%100000000)
}

const base36Alphabet = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZ"

// GenerateLifafaCode builds a share code from a short creator prefix, a
// random base-36 body and a time suffix. The code is not guaranteed unique on
// its own; callers retry on a unique-index collision.
func GenerateLifafaCode(creator string) string {
	prefix := strings.ToUpper(creator)
	if len(prefix) > 3 {
		prefix = prefix[:3]
	}

	body := make([]byte, 7)
	for i := range body {
		body[i] = base36Alphabet[rand.Intn(len(base36Alphabet))]
	}

	ts := fmt.Sprintf("%d", time.Now().UnixMilli())
	return prefix + string(body) + ts[len(ts)-4:]
}
