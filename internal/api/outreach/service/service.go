package outreachService

import (
	"WhatsappReminder/internal/api/outreach"
	"WhatsappReminder/internal/conversation"
	"WhatsappReminder/pkg/metrics"
	"WhatsappReminder/pkg/nlp"
	"WhatsappReminder/pkg/s3"
	"WhatsappReminder/pkg/utils"
	"WhatsappReminder/pkg/whatsapp"
	"github.com/sirupsen/logrus"
	"golang.org/x/net/context"
)

type IOutreachService interface {
	HandleInbound(ctx context.Context, from string, body string) outreach.Outcome
	Send(ctx context.Context, req outreach.SendRequest) (string, error)
	PairingQR(ctx context.Context) (string, bool, error)
}

// AllowList is the read side of the allow-list provider.
type AllowList interface {
	Contains(id string) bool
}

type outreachService struct {
	log        *logrus.Logger
	gateway    whatsapp.IWhatsappSender
	allowList  AllowList
	store      conversation.Store
	classifier nlp.IClassifier
	content    outreach.Content
	s3         s3.ItfS3
	utils      utils.IUtils
	metrics    metrics.IMetrics
}

func NewOutreachService(
	log *logrus.Logger,
	gateway whatsapp.IWhatsappSender,
	allowList AllowList,
	store conversation.Store,
	content outreach.Content,
	s3Client s3.ItfS3,
	utils utils.IUtils,
	m metrics.IMetrics,
) IOutreachService {
	return &outreachService{
		log:        log,
		gateway:    gateway,
		allowList:  allowList,
		store:      store,
		classifier: nlp.NewClassifier(content.Affirmative, content.Negative),
		content:    content,
		s3:         s3Client,
		utils:      utils,
		metrics:    m,
	}
}

func (s *outreachService) recordDispatch(kind string, err error) {
	if s.metrics != nil {
		s.metrics.RecordDispatch(kind, err)
	}
}
