package services

import (
	"context"
	"fmt"

	"luckydraw/domain/entities"
	"luckydraw/domain/events"
	"luckydraw/domain/interfaces"

	log "github.com/sirupsen/logrus"
)

// advertisingService reviews advertisements. It shares the request events with deposits
// and withdrawals so the admin queue and metrics see one stream.
type advertisingService struct {
	adRepo         interfaces.AdvertisementRepository
	ledger         interfaces.LedgerService
	eventPublisher interfaces.EventPublisher
}

// NewAdvertisingService creates a new advertising service
func NewAdvertisingService(
	adRepo interfaces.AdvertisementRepository,
	ledger interfaces.LedgerService,
	eventPublisher interfaces.EventPublisher,
) interfaces.AdvertisingService {
	return &advertisingService{
		adRepo:         adRepo,
		ledger:         ledger,
		eventPublisher: eventPublisher,
	}
}

// Submit validates the draft and stores it as a pending advertisement priced by its type
func (s *advertisingService) Submit(ctx context.Context, userID int64, draft entities.AdDraft) (*entities.Advertisement, error) {
	user, err := s.ledger.GetUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !user.IsRegistered() {
		return nil, entities.ErrUserNotRegistered
	}
	if !user.IsActive() {
		return nil, entities.ErrNotAuthorized
	}

	adType, err := entities.ParseAdType(string(draft.Type))
	if err != nil {
		return nil, err
	}
	ad := &entities.Advertisement{
		UserID: userID,
		Type:   adType,
		Cost:   adType.Cost(),
		Status: entities.RequestStatusPending,
	}
	if ad.AdvertiserName, err = entities.AdFieldAdvertiser.Clean(draft.AdvertiserName); err != nil {
		return nil, err
	}
	if ad.Title, err = entities.AdFieldTitle.Clean(draft.Title); err != nil {
		return nil, err
	}
	if ad.Content, err = entities.AdFieldContent.Clean(draft.Content); err != nil {
		return nil, err
	}

	if err := s.adRepo.Create(ctx, ad); err != nil {
		return nil, fmt.Errorf("failed to create advertisement: %w", err)
	}

	log.WithFields(log.Fields{
		"ref":    ad.Ref().String(),
		"userID": userID,
		"type":   ad.Type,
		"cost":   ad.Cost,
	}).Info("Advertisement submitted")

	s.publish(events.RequestCreatedEvent{
		Ref:    ad.Ref().String(),
		Kind:   entities.RequestKindAdvertisement,
		UserID: userID,
		Amount: ad.Cost,
	})
	return ad, nil
}

// Decide approves, rejects or holds a pending advertisement
func (s *advertisingService) Decide(ctx context.Context, id int64, status entities.RequestStatus, adminID int64, note string) (*entities.Advertisement, error) {
	ad, err := s.adRepo.GetByIDForUpdate(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to load advertisement: %w", err)
	}
	if ad == nil {
		return nil, entities.ErrRequestNotFound
	}
	if !ad.IsPending() {
		return nil, entities.ErrRequestNotPending
	}

	ok, err := s.adRepo.Decide(ctx, id, status, adminID, note)
	if err != nil {
		return nil, fmt.Errorf("failed to update advertisement: %w", err)
	}
	if !ok {
		return nil, entities.ErrRequestNotPending
	}

	ad.Status = status
	ad.AdminID = &adminID
	ad.AdminNote = note

	log.WithFields(log.Fields{
		"ref":     ad.Ref().String(),
		"status":  status,
		"adminID": adminID,
		"userID":  ad.UserID,
	}).Info("Advertisement decided")

	s.publish(events.RequestDecidedEvent{
		Ref:     ad.Ref().String(),
		Kind:    entities.RequestKindAdvertisement,
		UserID:  ad.UserID,
		AdminID: adminID,
		Amount:  ad.Cost,
		Status:  status,
	})
	return ad, nil
}

// Get returns an advertisement or ErrRequestNotFound
func (s *advertisingService) Get(ctx context.Context, id int64) (*entities.Advertisement, error) {
	ad, err := s.adRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get advertisement: %w", err)
	}
	if ad == nil {
		return nil, entities.ErrRequestNotFound
	}
	return ad, nil
}

// ListPending returns pending advertisements, oldest first
func (s *advertisingService) ListPending(ctx context.Context, limit int) ([]*entities.Advertisement, error) {
	if limit <= 0 {
		limit = 20
	}
	ads, err := s.adRepo.ListPending(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list pending advertisements: %w", err)
	}
	return ads, nil
}

func (s *advertisingService) publish(event events.Event) {
	if err := s.eventPublisher.Publish(event); err != nil {
		log.WithError(err).WithField("eventType", event.Type()).Error("Failed to publish event")
	}
}
