package allowlist

import (
	"context"
	"sync/atomic"

	"WhatsappReminder/internal/entity"
	"WhatsappReminder/pkg/metrics"
	"github.com/sirupsen/logrus"
)

type snapshot map[string]struct{}

// Provider holds the current allow-list. Reload builds a new snapshot and
// swaps the pointer, so readers never see a partially built set.
type Provider struct {
	source  Source
	current atomic.Pointer[snapshot]
	log     *logrus.Logger
	metrics metrics.IMetrics
}

func New(source Source, log *logrus.Logger, m metrics.IMetrics) *Provider {
	p := &Provider{
		source:  source,
		log:     log,
		metrics: m,
	}
	empty := snapshot{}
	p.current.Store(&empty)
	return p
}

// Reload replaces the allow-list with the source's current content. On error
// the previous snapshot stays in place.
func (p *Provider) Reload(ctx context.Context) error {
	phones, err := p.source.Phones(ctx)
	if err != nil {
		p.log.WithFields(logrus.Fields{
			"source": p.source.Path(),
			"error":  err.Error(),
		}).Error("Failed to reload allow-list, keeping previous snapshot")
		return err
	}

	next := make(snapshot, len(phones))
	for _, phone := range phones {
		id := entity.OnlyDigits(phone)
		if len(id) < entity.MinContactDigits {
			continue
		}
		next[id] = struct{}{}
	}

	p.current.Store(&next)
	if p.metrics != nil {
		p.metrics.SetAllowListSize(len(next))
	}

	p.log.WithFields(logrus.Fields{
		"source":  p.source.Path(),
		"entries": len(next),
	}).Info("Allow-list loaded")

	return nil
}

func (p *Provider) Contains(id string) bool {
	_, ok := (*p.current.Load())[id]
	return ok
}

func (p *Provider) Size() int {
	return len(*p.current.Load())
}
