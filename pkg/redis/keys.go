package redis

import "strings"

// Keyspace prefixes every key written by this service.
type Keyspace string

const DefaultKeyspace Keyspace = "mj"

func (k Keyspace) Idempotency(scope, id string) string {
	return k.join("idempotency", scope, id)
}

func (k Keyspace) RateLimit(scope string) string {
	return k.join("rate_limit", scope)
}

// join skips blank parts so a missing scope never yields "::".
func (k Keyspace) join(parts ...string) string {
	b := strings.Builder{}
	b.WriteString(string(k))
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		b.WriteByte(':')
		b.WriteString(part)
	}
	return b.String()
}
