package application

import (
	"context"
	"errors"
	"fmt"
	"time"

	"luckydraw/application/dto"
	"luckydraw/domain/entities"
	"luckydraw/domain/interfaces"
	"luckydraw/domain/services"
	"luckydraw/domain/utils"

	"github.com/robfig/cron/v3"
	log "github.com/sirupsen/logrus"
)

const drawRetryInterval = 5 * time.Minute

// DrawWorker runs the daily draw at the configured draw time. It is the only writer of
// draws in the process; the unique draw date guards against a second process.
type DrawWorker struct {
	uowFactory     UnitOfWorkFactory
	notifier       Notifier
	renderer       DrawCardRenderer
	opts           Options
	newRandom      func() interfaces.RandomSource
	now            func() time.Time
	recordDuration func(time.Duration)
}

// NewDrawWorker creates a new draw worker. renderer may be nil, in which case
// announcements are text only.
func NewDrawWorker(uowFactory UnitOfWorkFactory, notifier Notifier, renderer DrawCardRenderer, opts Options) *DrawWorker {
	return &DrawWorker{
		uowFactory: uowFactory,
		notifier:   notifier,
		renderer:   renderer,
		opts:       opts,
		newRandom:  func() interfaces.RandomSource { return services.NewRandomSource() },
		now:        time.Now,
	}
}

// SetDurationRecorder registers a callback that receives the duration of every draw run
func (w *DrawWorker) SetDurationRecorder(record func(time.Duration)) {
	w.recordDuration = record
}

// SetRandomSource replaces the source of randomness used to pick winners
func (w *DrawWorker) SetRandomSource(newRandom func() interfaces.RandomSource) {
	w.newRandom = newRandom
}

// SetClock replaces the clock used to decide which draw is due
func (w *DrawWorker) SetClock(now func() time.Time) {
	w.now = now
}

// NextDrawTime returns the first draw time strictly after now, evaluated in loc
func NextDrawTime(now time.Time, loc *time.Location, hour, minute int) (time.Time, error) {
	schedule, err := cron.ParseStandard(fmt.Sprintf("%d %d * * *", minute, hour))
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid draw schedule %02d:%02d: %w", hour, minute, err)
	}
	return schedule.Next(now.In(loc)), nil
}

// Start begins the draw worker and returns a function that stops it
func (w *DrawWorker) Start(ctx context.Context) func() {
	stopChan := make(chan struct{})

	go func() {
		log.Info("Draw worker started")

		for {
			// A draw whose time has passed without a draw row runs first
			catchUpErr := w.catchUp(ctx)
			if catchUpErr != nil {
				log.WithError(catchUpErr).Error("Error running due draw")
			}

			wait := drawRetryInterval
			next, err := w.nextRun(ctx)
			switch {
			case err != nil:
				log.WithError(err).Error("Failed to compute next draw time")
			case catchUpErr != nil:
				log.Infof("Retrying due draw in %v", wait)
			default:
				wait = time.Until(next)
				log.Infof("Next draw at %v (in %v)", next, wait.Round(time.Second))
			}

			select {
			case <-ctx.Done():
				log.Info("Draw worker shutting down (context cancelled)...")
				return
			case <-stopChan:
				log.Info("Draw worker shutting down (stop requested)...")
				return
			case <-time.After(wait):
				// Timer fired, loop to run the draw
			}
		}
	}()

	return func() {
		close(stopChan)
	}
}

func (w *DrawWorker) nextRun(ctx context.Context) (time.Time, error) {
	var next time.Time
	err := withUnitOfWork(ctx, w.uowFactory, w.opts, func(_ UnitOfWork, svc *domainServices) error {
		hour, minute, err := svc.settings.DrawTime(ctx)
		if err != nil {
			return err
		}
		next, err = NextDrawTime(w.now(), w.opts.location(), hour, minute)
		return err
	})
	return next, err
}

// dueDrawDate returns today's draw date when its draw time has passed and it has not run
func (w *DrawWorker) dueDrawDate(ctx context.Context) (time.Time, bool, error) {
	var (
		drawDate time.Time
		due      bool
	)
	err := withUnitOfWork(ctx, w.uowFactory, w.opts, func(_ UnitOfWork, svc *domainServices) error {
		hour, minute, err := svc.settings.DrawTime(ctx)
		if err != nil {
			return err
		}

		loc := w.opts.location()
		now := w.now().In(loc)
		cutoff := time.Date(now.Year(), now.Month(), now.Day(), hour, minute, 0, 0, loc)
		if now.Before(cutoff) {
			return nil
		}

		drawDate = utils.LocalDate(now, loc)
		existing, err := svc.draws.GetDraw(ctx, drawDate)
		if err != nil {
			return err
		}
		due = existing == nil
		return nil
	})
	return drawDate, due, err
}

func (w *DrawWorker) catchUp(ctx context.Context) error {
	drawDate, due, err := w.dueDrawDate(ctx)
	if err != nil || !due {
		return err
	}
	_, err = w.RunDraw(ctx, drawDate)
	if errors.Is(err, entities.ErrAlreadyDrawn) {
		return nil
	}
	return err
}

// RunDraw settles the draw for drawDate, then announces it. A draw that already ran
// returns ErrAlreadyDrawn and changes nothing.
func (w *DrawWorker) RunDraw(ctx context.Context, drawDate time.Time) (*dto.DrawAnnouncement, error) {
	started := time.Now()
	rng := w.newRandom()

	var announcement *dto.DrawAnnouncement
	err := withUnitOfWork(ctx, w.uowFactory, w.opts, func(_ UnitOfWork, svc *domainServices) error {
		result, err := svc.draws.RunDraw(ctx, drawDate, rng)
		if err != nil {
			return err
		}

		announcement = &dto.DrawAnnouncement{Draw: result.Draw}
		for _, winner := range result.Winners {
			user, err := svc.ledger.GetUser(ctx, winner.UserID)
			if err != nil {
				return err
			}
			announcement.Winners = append(announcement.Winners, dto.WinnerView{
				UserID:   winner.UserID,
				Name:     user.Name(),
				TicketID: winner.TicketID,
				Amount:   winner.Amount,
			})
		}
		return nil
	})

	if w.recordDuration != nil {
		w.recordDuration(time.Since(started))
	}

	if err != nil {
		if errors.Is(err, entities.ErrAlreadyDrawn) {
			log.WithField("drawDate", utils.FormatDate(drawDate)).Info("Draw already ran, skipping")
			return nil, err
		}
		log.WithError(err).WithField("drawDate", utils.FormatDate(drawDate)).Error("Draw failed")
		w.alertAdmins(ctx, fmt.Sprintf("⚠️ The %s draw failed: %v\nIt will be retried in %v.", utils.FormatDate(drawDate), err, drawRetryInterval))
		return nil, err
	}

	w.announce(ctx, announcement)
	return announcement, nil
}

func (w *DrawWorker) announce(ctx context.Context, a *dto.DrawAnnouncement) {
	if w.notifier == nil {
		return
	}

	switch a.Draw.Status {
	case entities.DrawStatusNoSales:
		w.alertAdmins(ctx, fmt.Sprintf("ℹ️ No tickets were sold for the %s draw. No winners.", utils.FormatDate(a.Draw.DrawDate)))
		return
	case entities.DrawStatusNoPrize:
		w.alertAdmins(ctx, fmt.Sprintf("⚠️ The %s draw sold %s Ks from %d buyer(s), but the prize pool of %s Ks is too small to pay a winner. No prizes were paid; check the commission and donation rates.",
			utils.FormatDate(a.Draw.DrawDate), utils.FormatThousands(a.Draw.TotalSales), a.Draw.BuyerCount, utils.FormatThousands(a.Draw.PrizePool)))
		return
	}

	var card []byte
	if w.renderer != nil {
		rendered, err := w.renderer.RenderDrawCard(*a)
		if err != nil {
			log.WithError(err).Warn("Failed to render draw card, announcing text only")
		} else {
			card = rendered
		}
	}

	if err := w.notifier.Announce(ctx, DrawAnnouncementText(*a), card); err != nil {
		log.WithError(err).WithField("drawID", a.Draw.ID).Error("Failed to post draw announcement")
	}

	for _, winner := range a.Winners {
		if err := w.notifier.NotifyUser(ctx, winner.UserID, winnerMessage(a.Draw, winner)); err != nil {
			log.WithError(err).WithField("userID", winner.UserID).Warn("Failed to notify winner")
		}
	}
}

func (w *DrawWorker) alertAdmins(ctx context.Context, text string) {
	if w.notifier == nil {
		return
	}
	if err := w.notifier.NotifyAdmins(ctx, text); err != nil {
		log.WithError(err).Warn("Failed to alert admins")
	}
}
