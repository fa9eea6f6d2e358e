package redis

import (
	"fmt"

	"github.com/mcoot/xrkiosk/internal/model"
)

// Key prefix for all kiosk data
const keyPrefix = "xrkiosk"

// teamKey returns the Redis key for a team's root document (without players)
func teamKey(code model.SessionCode) string {
	return fmt.Sprintf("%s:team:%s", keyPrefix, code)
}

// teamPlayersKey returns the Redis key for the HASH of player ID -> player document
func teamPlayersKey(code model.SessionCode) string {
	return fmt.Sprintf("%s:team:%s:players", keyPrefix, code)
}

// teamOrderKey returns the Redis key for the LIST of player IDs in join order
func teamOrderKey(code model.SessionCode) string {
	return fmt.Sprintf("%s:team:%s:order", keyPrefix, code)
}

// logsKey returns the Redis key for the LIST of registration logs, newest first
func logsKey() string {
	return fmt.Sprintf("%s:logs", keyPrefix)
}

// logsChannel returns the pub/sub channel announcing appended registration logs
func logsChannel() string {
	return fmt.Sprintf("%s:logs:feed", keyPrefix)
}
