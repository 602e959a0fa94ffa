package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/vhugonogueira-beep/frota-ls/internal/parser"
	"github.com/vhugonogueira-beep/frota-ls/internal/service"
)

// HandleWebhook receives inbound WhatsApp messages. Providers retry on
// non-2xx, so anything wrong with the message itself (parse failure,
// business rejection) is acknowledged with 200 and an explanation; only
// infrastructure faults return 5xx.
func (h *Handler) HandleWebhook(c *gin.Context) {
	text, group, err := extractMessage(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "corpo da requisição inválido"})
		return
	}
	if strings.TrimSpace(text) == "" {
		c.JSON(http.StatusOK, gin.H{"status": "ignored", "reason": "mensagem vazia"})
		return
	}

	if !h.groupAllowed(group) {
		h.logger.Debug("webhook message from unlisted group skipped", zap.String("group", group))
		c.JSON(http.StatusOK, gin.H{"status": "ignored", "reason": "grupo não monitorado"})
		return
	}

	intent, err := parser.Parse(text)
	if err != nil {
		var perr *parser.ParseError
		if errors.As(err, &perr) {
			h.logger.Info("webhook message rejected by parser",
				zap.String("field", perr.Field),
				zap.String("reason", perr.Reason),
			)
			c.JSON(http.StatusOK, gin.H{"error": perr.Reason})
			return
		}
		c.JSON(http.StatusOK, gin.H{"error": err.Error()})
		return
	}

	result, err := h.fleet.Process(c.Request.Context(), intent)
	if err != nil {
		if service.IsValidation(err) {
			c.JSON(http.StatusOK, gin.H{"error": err.Error()})
			return
		}
		h.logger.Error("webhook processing failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": result.Message,
		"record":  result.Record,
	})
}

// groupAllowed applies the group allow-list. An empty list accepts every
// group, and direct messages (no group name) are always accepted.
func (h *Handler) groupAllowed(group string) bool {
	if len(h.cfg.WebhookGroups) == 0 || group == "" {
		return true
	}
	for _, g := range h.cfg.WebhookGroups {
		if strings.EqualFold(g, group) {
			return true
		}
	}
	return false
}

// extractMessage pulls the message text (and group name, when the provider
// sends one) out of whatever envelope the provider wraps it in. Shapes are
// tried in order: flat "message", nested "text.message", the WhatsApp
// Business entry/changes tree, flat "body", then form fields and finally
// the raw body as plain text.
func extractMessage(c *gin.Context) (text, group string, err error) {
	contentType := c.ContentType()

	if strings.Contains(contentType, "application/json") {
		body, readErr := io.ReadAll(c.Request.Body)
		if readErr != nil {
			return "", "", readErr
		}
		var payload map[string]interface{}
		if jsonErr := json.Unmarshal(body, &payload); jsonErr != nil {
			return "", "", jsonErr
		}
		return textFromPayload(payload), groupFromPayload(payload), nil
	}

	if strings.Contains(contentType, "application/x-www-form-urlencoded") ||
		strings.Contains(contentType, "multipart/form-data") {
		text = c.PostForm("message")
		if text == "" {
			text = c.PostForm("body")
		}
		return text, c.PostForm("group_name"), nil
	}

	body, readErr := io.ReadAll(c.Request.Body)
	if readErr != nil {
		return "", "", readErr
	}
	return string(body), "", nil
}

func textFromPayload(payload map[string]interface{}) string {
	if s := stringField(payload, "message"); s != "" {
		return s
	}
	if text, ok := payload["text"].(map[string]interface{}); ok {
		if s := stringField(text, "message"); s != "" {
			return s
		}
	}
	if s := businessAPIText(payload); s != "" {
		return s
	}
	return stringField(payload, "body")
}

// businessAPIText walks the official WhatsApp Business API tree:
// entry[].changes[].value.messages[].text.body.
func businessAPIText(payload map[string]interface{}) string {
	entries, ok := payload["entry"].([]interface{})
	if !ok {
		return ""
	}
	for _, e := range entries {
		entry, ok := e.(map[string]interface{})
		if !ok {
			continue
		}
		changes, ok := entry["changes"].([]interface{})
		if !ok {
			continue
		}
		for _, ch := range changes {
			change, ok := ch.(map[string]interface{})
			if !ok {
				continue
			}
			value, ok := change["value"].(map[string]interface{})
			if !ok {
				continue
			}
			messages, ok := value["messages"].([]interface{})
			if !ok {
				continue
			}
			for _, m := range messages {
				message, ok := m.(map[string]interface{})
				if !ok {
					continue
				}
				if text, ok := message["text"].(map[string]interface{}); ok {
					if s := stringField(text, "body"); s != "" {
						return s
					}
				}
			}
		}
	}
	return ""
}

func groupFromPayload(payload map[string]interface{}) string {
	for _, key := range []string{"group_name", "groupName", "chatName"} {
		if s := stringField(payload, key); s != "" {
			return s
		}
	}
	if chat, ok := payload["chat"].(map[string]interface{}); ok {
		return stringField(chat, "name")
	}
	return ""
}

func stringField(m map[string]interface{}, key string) string {
	s, _ := m[key].(string)
	return s
}
