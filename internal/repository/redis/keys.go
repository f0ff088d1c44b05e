package redis

import (
	"fmt"
	"net/url"

	"github.com/kirinyoku/tix-rail/internal/domain"
)

const ns = "tixrail:v1"

// Query keys embed the store namespace, so a commit makes every older entry
// unreachable instead of invalidating it.

func KeyTrain(storeNS, trainID string, day domain.Day) string {
	return fmt.Sprintf("%s:%s:train:%s:%s", ns, storeNS, url.QueryEscape(trainID), day)
}

func KeyTickets(storeNS, from, to string, day domain.Day, sort string) string {
	return fmt.Sprintf("%s:%s:tickets:%s:%s:%s:%s", ns, storeNS, url.QueryEscape(from), url.QueryEscape(to), day, sort)
}

func KeyTransfer(storeNS, from, to string, day domain.Day, sort string) string {
	return fmt.Sprintf("%s:%s:transfer:%s:%s:%s:%s", ns, storeNS, url.QueryEscape(from), url.QueryEscape(to), day, sort)
}

func KeyRateLimit(scope, id string) string {
	return fmt.Sprintf("%s:rl:%s:%s", ns, scope, id)
}

func KeyIdemPurchase(username, idemKey string) string {
	return fmt.Sprintf("%s:idem:purchase:%s:%s", ns, url.QueryEscape(username), url.QueryEscape(idemKey))
}

func ChannelTrainsChanged() string {
	return ns + ":trains:changed"
}

func ChannelOrderEvents() string {
	return ns + ":orders:events"
}
