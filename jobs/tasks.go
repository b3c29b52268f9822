package jobs

import (
	"encoding/json"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskTypeSendMail is the task type for sending transactional mail.
	TaskTypeSendMail = "mail:send"
	// TaskTypeNewsPublishDue promotes scheduled news whose publish time passed.
	TaskTypeNewsPublishDue = "news:publish_due"
)

// SendMailPayload describes the information required to send a mail.
type SendMailPayload struct {
	To      string `json:"to"`
	Subject string `json:"subject"`
	Body    string `json:"body"`
}

// NewSendMailTask constructs an Asynq task carrying the mail payload.
func NewSendMailTask(payload SendMailPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskTypeSendMail, data), nil
}

// NewNewsPublishDueTask constructs the scheduled-news sweep task. It carries
// no payload; the handler queries for due entries itself.
func NewNewsPublishDueTask() *asynq.Task {
	return asynq.NewTask(TaskTypeNewsPublishDue, nil)
}
