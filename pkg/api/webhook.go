package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"

	"github.com/Kalpeny/edgeonepagesimg/pkg/clients/telegram"
	"github.com/Kalpeny/edgeonepagesimg/pkg/ingest"
	"github.com/Kalpeny/edgeonepagesimg/pkg/record"
)

const secretTokenHeader = "X-Telegram-Bot-Api-Secret-Token"

// TelegramWebhook handles POST /telegram-webhook. Apart from the 404/403
// auth answers it always returns 200 OK: the caller is an uninteractive
// webhook dispatcher and non-2xx answers only cause retry storms.
// Ingestion outcomes are reported to the originating chat instead.
func (h *Handlers) TelegramWebhook(c echo.Context) error {
	// No token configured: the endpoint appears inert to probing.
	if h.bot == nil {
		return c.String(http.StatusNotFound, "Not Found")
	}
	if h.webhookSecret != "" &&
		c.Request().Header.Get(secretTokenHeader) != h.webhookSecret {
		return c.String(http.StatusForbidden, "Unauthorized")
	}

	ctx := c.Request().Context()

	var update telegram.Update
	if err := json.NewDecoder(c.Request().Body).Decode(&update); err != nil {
		log.Ctx(ctx).Warn().Err(err).Msg("unparseable webhook update")
		return c.String(http.StatusOK, "OK")
	}
	if update.Message == nil {
		// Not a message update, ignore.
		return c.String(http.StatusOK, "OK")
	}
	msg := update.Message

	// Photos come in ascending resolutions; take the largest. Images sent
	// as files arrive as documents with an image/* mime type.
	var fileID string
	switch {
	case len(msg.Photo) > 0:
		fileID = msg.Photo[len(msg.Photo)-1].FileID
	case msg.Document != nil && strings.HasPrefix(msg.Document.MimeType, "image/"):
		fileID = msg.Document.FileID
	default:
		return c.String(http.StatusOK, "OK")
	}

	h.processRemoteImage(ctx, msg, fileID, requestOrigin(c))
	return c.String(http.StatusOK, "OK")
}

// requestOrigin rebuilds the externally reachable origin from the inbound
// request itself, so links work under whatever domain the service is
// bound to.
func requestOrigin(c echo.Context) string {
	return c.Scheme() + "://" + c.Request().Host
}

// processRemoteImage fetches the file from the Bot API, ingests it and
// reports the outcome to the chat. Every failure funnels into a chat
// notice; nothing propagates back to the webhook response.
func (h *Handlers) processRemoteImage(ctx context.Context, msg *telegram.Message, fileID, origin string) {
	filePath, err := h.bot.GetFile(ctx, fileID)
	if err != nil {
		log.Ctx(ctx).Error().Err(err).Str("file_id", fileID).Msg("getFile failed")
		h.notify(ctx, msg, "❌ Failed to resolve the image file")
		return
	}

	raw, contentType, err := h.bot.Download(ctx, filePath)
	if err != nil {
		log.Ctx(ctx).Error().Err(err).Str("file_path", filePath).Msg("file download failed")
		h.notify(ctx, msg, "❌ Failed to download the image")
		return
	}

	key, _, err := h.ingest.IngestTelegram(ctx, raw, fileID, contentType, record.ExtHint(filePath))
	if err != nil {
		if errors.Is(err, ingest.ErrTooLarge) {
			h.notify(ctx, msg, "❌ Image too large (>25MB)")
		} else {
			h.notify(ctx, msg, "❌ Failed to store the image: "+err.Error())
		}
		return
	}

	h.notify(ctx, msg, successReply(origin+"/i/"+key))
}

// notify sends a chat message best-effort. A notification failure must
// never mask the ingestion outcome, so errors are only logged.
func (h *Handlers) notify(ctx context.Context, msg *telegram.Message, text string) {
	err := h.bot.SendMessage(ctx, telegram.SendMessageRequest{
		ChatID:                msg.Chat.ID,
		Text:                  text,
		ReplyToMessageID:      msg.MessageID,
		ParseMode:             "Markdown",
		DisableWebPagePreview: true,
	})
	if err != nil {
		log.Ctx(ctx).Warn().Err(err).Int64("chat_id", msg.Chat.ID).Msg("chat notification failed")
	}
}

// successReply formats the upload confirmation. Code spans copy on tap in
// Telegram clients.
func successReply(imageURL string) string {
	return fmt.Sprintf("✅ *Uploaded!*\n\n"+
		"🔗 *Direct link*\n`%s`\n\n"+
		"📝 *Markdown*\n`![](%s)`\n\n"+
		"🌐 *HTML*\n`<img src=\"%s\" />`\n\n"+
		"🤖 *BBCode*\n`[img]%s[/img]`",
		imageURL, imageURL, imageURL, imageURL)
}
