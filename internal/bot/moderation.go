package bot

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/ad/fitness-challenge-bot/internal/domain"
	"github.com/ad/fitness-challenge-bot/internal/locale"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
)

// handlePending sends one card per pending submission with inline
// approve and reject buttons. Moderators only.
func (h *BotHandler) handlePending(ctx context.Context, userID, chatID int64) error {
	if !h.config.IsAdmin(userID) {
		h.logger.Warn("unauthorized moderation attempt", "user_id", userID)
		return h.sendText(ctx, chatID, h.localizer.MustLocalize(locale.ModNotAllowed))
	}

	pending, err := h.lifecycle.GetPending(ctx)
	if err != nil {
		return err
	}

	if len(pending) == 0 {
		return h.sendText(ctx, chatID, h.localizer.MustLocalize(locale.ModNoPending))
	}

	if err := h.sendText(ctx, chatID, h.localizer.MustLocalize(locale.ModPendingHeader)); err != nil {
		return err
	}

	for _, s := range pending {
		if err := h.sendModerationCard(ctx, chatID, s); err != nil {
			h.logger.Error("failed to send moderation card", "submission_id", s.ID, "error", err)
		}
	}

	return nil
}

func (h *BotHandler) sendModerationCard(ctx context.Context, chatID int64, s *domain.Submission) error {
	participantName := fmt.Sprintf("#%d", s.ParticipantID)
	if p, err := h.participants.GetParticipant(ctx, s.ParticipantID); err == nil && p != nil {
		participantName = fmt.Sprintf("%s (%s)", p.FullName, p.StartNumber)
	}

	challengeName := fmt.Sprintf("#%d", s.ChallengeID)
	if c, err := h.challenges.GetChallenge(ctx, s.ChallengeID); err == nil && c != nil {
		challengeName = c.Name
	}

	comment := s.Comment
	if comment == "" {
		comment = "—"
	}

	idStr := strconv.FormatInt(s.ID, 10)
	_, err := h.sender.SendMessage(ctx, &bot.SendMessageParams{
		ChatID: chatID,
		Text: h.localizer.MustLocalizeWithTemplate(locale.ModCard,
			idStr, participantName, challengeName,
			strconv.FormatFloat(s.ResultValue, 'g', -1, 64), s.ResultUnit, comment),
		ReplyMarkup: &models.InlineKeyboardMarkup{
			InlineKeyboard: [][]models.InlineKeyboardButton{{
				{
					Text:         h.localizer.MustLocalize(locale.ButtonApprove),
					CallbackData: callbackApprovePrefix + idStr,
				},
				{
					Text:         h.localizer.MustLocalize(locale.ButtonReject),
					CallbackData: callbackRejectPrefix + idStr,
				},
			}},
		},
	})
	return err
}

// handleModeration approves or rejects a submission from an inline
// button and notifies the participant about the decision
func (h *BotHandler) handleModeration(ctx context.Context, userID, chatID int64, idStr string, approve bool) error {
	if !h.config.IsAdmin(userID) {
		h.logger.Warn("unauthorized moderation attempt", "user_id", userID)
		return h.sendText(ctx, chatID, h.localizer.MustLocalize(locale.ModNotAllowed))
	}

	submissionID, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil {
		return err
	}

	if approve {
		err = h.lifecycle.Approve(ctx, submissionID, userID, "")
	} else {
		err = h.lifecycle.Reject(ctx, submissionID, userID, "")
	}

	if err != nil {
		if errors.Is(err, domain.ErrSubmissionNotFound) {
			return h.sendText(ctx, chatID, h.localizer.MustLocalize(locale.ModNotFound))
		}
		return err
	}

	key := locale.ModRejected
	if approve {
		key = locale.ModApproved
	}
	if err := h.sendText(ctx, chatID, h.localizer.MustLocalizeWithTemplate(key, idStr)); err != nil {
		return err
	}

	h.notifyParticipant(ctx, submissionID, approve)
	return nil
}

// notifyParticipant tells the submitter about the moderation outcome.
// Failures are logged only, the moderation itself is already recorded.
func (h *BotHandler) notifyParticipant(ctx context.Context, submissionID int64, approved bool) {
	s, err := h.lifecycle.GetSubmission(ctx, submissionID)
	if err != nil {
		h.logger.Warn("failed to load submission for notification", "submission_id", submissionID, "error", err)
		return
	}

	p, err := h.participants.GetParticipant(ctx, s.ParticipantID)
	if err != nil || p == nil {
		h.logger.Warn("failed to load participant for notification", "submission_id", submissionID, "error", err)
		return
	}

	challengeName := fmt.Sprintf("#%d", s.ChallengeID)
	if c, err := h.challenges.GetChallenge(ctx, s.ChallengeID); err == nil && c != nil {
		challengeName = c.Name
	}

	var text string
	if approved {
		text = h.localizer.MustLocalizeWithTemplate(locale.SubApprovedNotify, challengeName)
	} else {
		text = h.localizer.MustLocalizeWithTemplate(locale.SubRejectedNotify, challengeName, s.ModeratorComment)
	}

	if _, err := h.sender.SendMessage(ctx, &bot.SendMessageParams{
		ChatID: p.TelegramID,
		Text:   text,
	}); err != nil {
		h.logger.Warn("failed to notify participant", "telegram_id", p.TelegramID, "error", err)
	}
}
