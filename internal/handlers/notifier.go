package handlers

import (
	"context"

	"github.com/anonto42/vidtube/backend/internal/logging"
	"github.com/anonto42/vidtube/backend/internal/models"
	"github.com/anonto42/vidtube/backend/internal/repositories"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// notifier records notifications for relationship changes. A nil repository turns it
// into a no-op; write failures are logged and never fail the request.
type notifier struct {
	repo repositories.NotificationRepository
}

var notificationText = map[models.EdgeKind]struct{ typ, msg string }{
	models.EdgeKindVideo:   {models.NotificationVideoLike, "liked your video"},
	models.EdgeKindComment: {models.NotificationCommentLike, "liked your comment"},
	models.EdgeKindTweet:   {models.NotificationTweetLike, "liked your tweet"},
	models.EdgeKindChannel: {models.NotificationSubscription, "subscribed to your channel"},
}

// edgeAdded notifies recipient that actor created edge, unless they are the same user.
func (n notifier) edgeAdded(ctx context.Context, actor *models.Actor, recipient primitive.ObjectID, edge *models.Edge) {
	if n.repo == nil || edge == nil || actor.ID == recipient {
		return
	}
	text, ok := notificationText[edge.Kind]
	if !ok {
		return
	}

	notification := &models.Notification{
		Type:        text.typ,
		ActorID:     actor.ID.Hex(),
		RecipientID: recipient.Hex(),
		TargetID:    edge.Target.Hex(),
		TargetType:  edge.Kind.String(),
		Message:     actor.Username + " " + text.msg,
	}
	if err := n.repo.CreateNotification(ctx, notification); err != nil {
		logging.Warn().Err(err).
			Str("type", text.typ).
			Str("recipient", notification.RecipientID).
			Msg("failed to create notification")
	}
}
