package bot

import (
	"context"
	"fmt"
	"strings"

	"luckydraw/domain/entities"
	"luckydraw/domain/utils"
)

func (r *Router) handleAddAd(ctx context.Context, u Update, _ string) error {
	if _, err := r.requireRegistered(ctx, u.UserID); err != nil {
		return err
	}
	r.sessions.Start(u.UserID, StepAdName)
	r.reply(ctx, u, "📢 Advertise to every Lucky Draw player.\nSend the advertiser or business name.")
	return nil
}

func (r *Router) stepAdName(ctx context.Context, u Update, s *Session) error {
	name, err := entities.AdFieldAdvertiser.Clean(u.Text)
	if err != nil {
		return err
	}
	s.Ad.AdvertiserName = name
	s.Step = StepAdTitle
	r.sessions.Save(s)
	r.reply(ctx, u, fmt.Sprintf("✏️ Send the ad title (%d-%d characters).", entities.AdFieldTitle.Min, entities.AdFieldTitle.Max))
	return nil
}

func (r *Router) stepAdTitle(ctx context.Context, u Update, s *Session) error {
	title, err := entities.AdFieldTitle.Clean(u.Text)
	if err != nil {
		return err
	}
	s.Ad.Title = title
	s.Step = StepAdContent
	r.sessions.Save(s)
	r.reply(ctx, u, fmt.Sprintf("📝 Send the ad text (%d-%d characters).", entities.AdFieldContent.Min, entities.AdFieldContent.Max))
	return nil
}

func (r *Router) stepAdContent(ctx context.Context, u Update, s *Session) error {
	content, err := entities.AdFieldContent.Clean(u.Text)
	if err != nil {
		return err
	}
	s.Ad.Content = content
	s.Step = StepAdType
	r.sessions.Save(s)
	r.replyWithButtons(ctx, u, "📐 Which placement?", adTypeButtons()...)
	return nil
}

func (r *Router) stepAdType(ctx context.Context, u Update, s *Session) error {
	adType, err := entities.ParseAdType(u.Text)
	if err != nil {
		return err
	}
	s.Ad.Type = adType
	s.Step = StepAdConfirm
	r.sessions.Save(s)
	r.replyWithButtons(ctx, u, formatAdSummary(s.Ad),
		Button{Label: "✅ Confirm", Data: "confirm"},
		Button{Label: "❌ Cancel", Data: "/cancel"},
	)
	return nil
}

func (r *Router) stepAdConfirm(ctx context.Context, u Update, s *Session) error {
	switch strings.ToLower(strings.TrimSpace(u.Text)) {
	case "confirm", "yes", "y", "ok":
	case "cancel", "no", "n":
		r.sessions.Clear(u.UserID)
		r.reply(ctx, u, "Cancelled.")
		return nil
	default:
		r.reply(ctx, u, "Press Confirm or send /cancel.")
		return nil
	}

	ad, err := r.wallet.SubmitAd(ctx, u.UserID, s.Ad)
	if err != nil {
		r.sessions.Clear(u.UserID)
		return err
	}
	r.sessions.Clear(u.UserID)
	r.reply(ctx, u, fmt.Sprintf("📨 Advertisement %s submitted (%s).\nAn admin will review it within 24 hours.",
		ad.Ref(), utils.FormatKyat(ad.Cost)))
	return nil
}
