package idempotency

import "strconv"

// UpdateKey names the claim for a Telegram update. Update ids are only unique per bot, so the
// bot id keeps two bots that share one Redis apart.
func UpdateKey(botID int64, updateID int) string {
	return "update:" + strconv.FormatInt(botID, 10) + ":" + strconv.Itoa(updateID)
}
