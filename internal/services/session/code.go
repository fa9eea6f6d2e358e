// Package session generates venue-scoped session codes.
package session

import (
	"fmt"

	"github.com/mcoot/xrkiosk/internal/dependencies/random"
	"github.com/mcoot/xrkiosk/internal/model"
)

const (
	// CodeMin is the smallest numeric suffix of a session code
	CodeMin = 10000
	// CodeMax is the largest numeric suffix of a session code
	CodeMax = 99999
)

// NewCode returns "{storeID}-{n}" with n drawn uniformly from [CodeMin, CodeMax].
// No uniqueness check is made here.
func NewCode(rnd random.Random, storeID string) model.SessionCode {
	n := CodeMin + rnd.Intn(CodeMax-CodeMin+1)
	return model.SessionCode(fmt.Sprintf("%s-%d", storeID, n))
}
