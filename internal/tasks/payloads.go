package tasks

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/hibiken/asynq"
)

// 任务类型常量，确保队列生产者与消费者一致。
const (
	TypeCVExport = "cv:export"
)

// QueueExports 是导出任务所在的 asynq 队列。
const QueueExports = "exports"

// ExportPayload 描述一次导出所需的最小信息，其余内容由 worker 从数据库读取。
type ExportPayload struct {
	ExportID      string `json:"export_id"`
	CVID          string `json:"cv_id"`
	UserID        string `json:"user_id"`
	CorrelationID string `json:"correlation_id"`
}

// NewExportTask 构造一个新的 CV 导出任务。
func NewExportTask(p ExportPayload) (*asynq.Task, error) {
	payload, err := json.Marshal(p)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TypeCVExport, payload), nil
}

// ParseExportPayload 解析 TypeCVExport 任务的载荷。
func ParseExportPayload(t *asynq.Task) (ExportPayload, error) {
	var p ExportPayload
	if err := json.Unmarshal(t.Payload(), &p); err != nil {
		return ExportPayload{}, fmt.Errorf("decode export payload: %w", err)
	}
	if p.ExportID == "" || p.CVID == "" || p.UserID == "" {
		return ExportPayload{}, fmt.Errorf("export payload missing ids")
	}
	return p, nil
}

// Enqueuer 是发布任务所需的 *asynq.Client 子集。
type Enqueuer interface {
	EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
}

// Queue 发布导出任务。导出失败不会自动重试，而是通知用户重新发起。
type Queue struct {
	client  Enqueuer
	timeout time.Duration
}

func NewQueue(client Enqueuer, timeout time.Duration) *Queue {
	return &Queue{client: client, timeout: timeout}
}

// EnqueueExport 发布任务并返回 asynq 任务 ID。
func (q *Queue) EnqueueExport(ctx context.Context, p ExportPayload) (string, error) {
	task, err := NewExportTask(p)
	if err != nil {
		return "", fmt.Errorf("build export task: %w", err)
	}
	opts := []asynq.Option{
		asynq.MaxRetry(0),
		asynq.Queue(QueueExports),
		asynq.TaskID(p.ExportID),
	}
	if q.timeout > 0 {
		opts = append(opts, asynq.Timeout(q.timeout))
	}
	info, err := q.client.EnqueueContext(ctx, task, opts...)
	if err != nil {
		return "", fmt.Errorf("enqueue export task: %w", err)
	}
	return info.ID, nil
}
