package api

import (
	"strconv"

	"github.com/velvetlabs/livepoll/pkg/internal/realtime"
	"github.com/velvetlabs/livepoll/pkg/internal/services"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	jsoniter "github.com/json-iterator/go"
	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
)

// upgradeGate stashes the session identity in locals before the
// protocol switch; afterwards the fiber context is gone.
func upgradeGate(c *fiber.Ctx) error {
	if accountID, ok := sessionAccountID(c); ok {
		c.Locals("account_id", accountID)
	}
	return c.Next()
}

// handleEventStream serves the generic /ws channel. Viewers on it only
// receive poll updates; inbound frames are drained and ignored.
func handleEventStream(c *websocket.Conn) {
	connection := realtime.Default().Register(c)
	defer realtime.Default().Unregister(connection)

	for {
		if _, _, err := c.ReadMessage(); err != nil {
			break
		}
	}
}

// handleVoteStream serves ws /vote/:id. Each inbound frame carries
// {"optionIndex": n} and casts one vote on the poll from the path. The
// socket also joins the hub, so the voter sees the updated tally too.
//
// By default the session-bound, once-per-poll vote path applies; the
// reference behavior of trusting any socket can be restored with
// voting.allow_anonymous_socket.
func handleVoteStream(c *websocket.Conn) {
	connection := realtime.Default().Register(c)
	defer realtime.Default().Unregister(connection)

	pollID, err := strconv.ParseUint(c.Params("id"), 10, 64)
	if err != nil {
		return
	}
	accountID, _ := c.Locals("account_id").(uint)

	for {
		_, raw, err := c.ReadMessage()
		if err != nil {
			break
		}

		var payload struct {
			OptionIndex int `json:"optionIndex"`
		}
		if err := jsoniter.Unmarshal(raw, &payload); err != nil {
			log.Debug().Err(err).Msg("Dropping malformed vote frame.")
			continue
		}

		selector := services.SelectOptionByIndex(payload.OptionIndex)
		trusted := viper.GetBool("voting.allow_anonymous_socket")

		if !trusted && accountID == 0 {
			writeStreamError(connection, "authentication required")
			continue
		}

		if _, err := services.CastVote(accountID, uint(pollID), selector, trusted); err != nil {
			writeStreamError(connection, err.Error())
		}
	}
}

func writeStreamError(connection *realtime.Connection, message string) {
	data, _ := jsoniter.Marshal(fiber.Map{"error": message})
	_ = connection.Write(data)
}
