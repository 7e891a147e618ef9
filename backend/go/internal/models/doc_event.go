package models

import "time"

// DocEventType 标识文档在其生命周期中产生的事件种类。
type DocEventType string

const (
	DocEventCreated DocEventType = "created"
	DocEventRenamed DocEventType = "renamed"
	DocEventMoved   DocEventType = "moved"
	DocEventDeleted DocEventType = "deleted"
)

// DocEvent 是发布到消息队列的文档变更事件，供下游（解析、索引等流水线）消费。
type DocEvent struct {
	Event     DocEventType `json:"event"`
	UID       int64        `json:"uid"`
	Did       int64        `json:"did"`
	DocName   string       `json:"doc_name"`
	Type      string       `json:"type"`
	Location  string       `json:"location,omitempty"`
	ParentID  int64        `json:"parent_id"`
	Timestamp time.Time    `json:"timestamp"`
}
