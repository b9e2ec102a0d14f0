package redis

import (
	"fmt"

	"github.com/mcoot/playgate/internal/model"
)

// Key prefix for all identity data
const keyPrefix = "playgate"

// accountKey returns the Redis key for an Account
func accountKey(id model.AccountID) string {
	return fmt.Sprintf("%s:account:%s", keyPrefix, id)
}

// emailIndexKey returns the Redis key for the email -> account_id index
func emailIndexKey(email string) string {
	return fmt.Sprintf("%s:idx:email:%s", keyPrefix, email)
}
