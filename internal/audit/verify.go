package audit

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
)

// VerifyChain checks the hash chain of an audit log.
//
// It returns the number of events whose chain links and hashes check
// out. On a valid log that is the total event count and the error is
// nil; on a tampered or truncated log it is the count of good events
// before the first bad one, and the error says what broke.
func VerifyChain(path string) (int, error) {
	file, err := os.Open(path)
	if err != nil {
		return 0, fmt.Errorf("open audit log: %w", err)
	}
	defer func() { _ = file.Close() }()

	count := 0
	prevHash := GenesisHash

	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		var event Event
		if err := json.Unmarshal(line, &event); err != nil {
			return count, fmt.Errorf("event %d is not valid JSON: %w", count+1, err)
		}

		if event.HashPrev != prevHash {
			return count, fmt.Errorf("event %d breaks the chain: hash_prev %s, expected %s",
				count+1, event.HashPrev, prevHash)
		}

		expected, err := computeHash(&event)
		if err != nil {
			return count, fmt.Errorf("event %d cannot be hashed: %w", count+1, err)
		}
		if event.Hash != expected {
			return count, fmt.Errorf("event %d has been modified: hash %s, expected %s",
				count+1, event.Hash, expected)
		}

		count++
		prevHash = event.Hash
	}
	if err := scanner.Err(); err != nil {
		return count, fmt.Errorf("read audit log: %w", err)
	}

	return count, nil
}
