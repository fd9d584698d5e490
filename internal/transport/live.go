package transport

import (
	"context"
	"encoding/base64"
	"net/http"

	"github.com/anime-shed/brand-inspector-go/internal/config"
	apperrors "github.com/anime-shed/brand-inspector-go/internal/errors"
	"github.com/anime-shed/brand-inspector-go/internal/logger"
	"github.com/anime-shed/brand-inspector-go/internal/palette"
	"github.com/anime-shed/brand-inspector-go/internal/service"
	"github.com/anime-shed/brand-inspector-go/internal/storage"
	"github.com/anime-shed/brand-inspector-go/pkg/models"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
)

// LiveFrame is one screenshot pushed over the live verification socket
type LiveFrame struct {
	// Source labels the frame in responses and events, e.g. a route name
	Source string `json:"source"`
	// Image is a base64 encoded screenshot in any format DecodeBytes accepts
	Image     string                `json:"image"`
	Brand     []palette.Entry       `json:"brand,omitempty"`
	Wrong     []palette.Entry       `json:"wrong,omitempty"`
	SkipWrong bool                  `json:"skip_wrong,omitempty"`
	Settings  *models.MatchSettings `json:"settings,omitempty"`
}

// LiveReply answers one frame. Exactly one of Result and Error is set.
type LiveReply struct {
	Source string                 `json:"source"`
	Result *models.VerifyResponse `json:"result,omitempty"`
	Error  string                 `json:"error,omitempty"`
}

const defaultLiveSource = "live"

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// liveVerify verifies frames as a running app streams them. Frames are
// handled in order and are not stored as reports.
func liveVerify(svc service.InspectionService, cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			logger.WithError(err).WithField("ip", c.ClientIP()).Warn("Websocket upgrade failed")
			return
		}
		defer conn.Close()

		// Base64 inflates the payload by a third
		conn.SetReadLimit(cfg.MaxRequestBodySize * 4 / 3)

		logger.WithField("ip", c.ClientIP()).Info("Live verification session started")
		frames := 0
		for {
			var frame LiveFrame
			if err := conn.ReadJSON(&frame); err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
					logger.WithError(err).Warn("Live verification session ended unexpectedly")
				}
				break
			}
			frames++

			reply := handleFrame(c.Request.Context(), svc, cfg, frame)
			if err := conn.WriteJSON(reply); err != nil {
				logger.WithError(err).Warn("Failed to write live verification reply")
				break
			}
		}

		logger.WithFields(logrus.Fields{
			"ip":     c.ClientIP(),
			"frames": frames,
		}).Info("Live verification session closed")
	}
}

func handleFrame(ctx context.Context, svc service.InspectionService, cfg *config.Config, frame LiveFrame) LiveReply {
	source := frame.Source
	if source == "" {
		source = defaultLiveSource
	}
	reply := LiveReply{Source: source}

	data, err := base64.StdEncoding.DecodeString(frame.Image)
	if err != nil {
		reply.Error = apperrors.NewImageDecodeError("frame is not valid base64", err).Error()
		return reply
	}
	img, _, err := storage.DecodeBytes(data)
	if err != nil {
		reply.Error = err.Error()
		return reply
	}

	ctx, cancel := context.WithTimeout(ctx, cfg.RequestTimeout)
	defer cancel()

	resp, err := svc.VerifyImage(ctx, source, img, models.VerifyRequest{
		Brand:     frame.Brand,
		Wrong:     frame.Wrong,
		SkipWrong: frame.SkipWrong,
		Settings:  frame.Settings,
	})
	if err != nil {
		reply.Error = err.Error()
		return reply
	}
	reply.Result = resp
	return reply
}
