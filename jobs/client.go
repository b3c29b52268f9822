package jobs

import (
	"context"
	"fmt"
	"strings"

	"github.com/hibiken/asynq"
)

// Client submits jobs to the queue.
type Client struct {
	client  *asynq.Client
	baseURL string
}

// NewClient constructs an Asynq client. baseURL is the public address used to
// build links embedded in outgoing mail.
func NewClient(redisOpts asynq.RedisClientOpt, baseURL string) *Client {
	return &Client{client: asynq.NewClient(redisOpts), baseURL: strings.TrimRight(baseURL, "/")}
}

// EnqueueSendMail enqueues a send-mail task.
func (c *Client) EnqueueSendMail(ctx context.Context, payload SendMailPayload) (*asynq.TaskInfo, error) {
	task, err := NewSendMailTask(payload)
	if err != nil {
		return nil, err
	}
	return c.client.EnqueueContext(ctx, task, asynq.Queue(QueueDefault))
}

// EnqueueInvitationMail queues the mail carrying a project invitation link.
func (c *Client) EnqueueInvitationMail(ctx context.Context, email, invitationID string) error {
	body := fmt.Sprintf(
		"You have been invited to join a project.\n\nOpen the link below while signed in to accept:\n%s/invitations/%s/receive\n\nThe link can be used once.\n",
		c.baseURL, invitationID)
	_, err := c.EnqueueSendMail(ctx, SendMailPayload{
		To:      email,
		Subject: "Project invitation",
		Body:    body,
	})
	return err
}

// Close releases client resources.
func (c *Client) Close() error {
	return c.client.Close()
}
