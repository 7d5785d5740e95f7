package msgs

import (
	"github.com/golang/protobuf/proto"

	"github.com/robotalks/flapchain/pkg/framework"
)

// Type ids of events.
const (
	CycleEventTypeID = TypeIDKindEvent | TypeIDGroupChain | 0x0001
)

// CycleEvent is published after every request cycle of a board.
type CycleEvent struct {
	Board              string `protobuf:"bytes,1,opt,name=board,proto3" json:"board,omitempty"`
	Cycle              uint64 `protobuf:"varint,2,opt,name=cycle,proto3" json:"cycle,omitempty"`
	Outcome            string `protobuf:"bytes,3,opt,name=outcome,proto3" json:"outcome,omitempty"`
	Demo               bool   `protobuf:"varint,4,opt,name=demo,proto3" json:"demo,omitempty"`
	UpstreamSeq        uint32 `protobuf:"varint,5,opt,name=upstream_seq,json=upstreamSeq,proto3" json:"upstream_seq,omitempty"`
	DownstreamSeq      uint32 `protobuf:"varint,6,opt,name=downstream_seq,json=downstreamSeq,proto3" json:"downstream_seq,omitempty"`
	Message            string `protobuf:"bytes,7,opt,name=message,proto3" json:"message,omitempty"`
	Local              string `protobuf:"bytes,8,opt,name=local,proto3" json:"local,omitempty"`
	Overflow           string `protobuf:"bytes,9,opt,name=overflow,proto3" json:"overflow,omitempty"`
	LocalEstimate      int32  `protobuf:"varint,10,opt,name=local_estimate,json=localEstimate,proto3" json:"local_estimate,omitempty"`
	Hint               int32  `protobuf:"varint,11,opt,name=hint,proto3" json:"hint,omitempty"`
	DownstreamEstimate int32  `protobuf:"varint,12,opt,name=downstream_estimate,json=downstreamEstimate,proto3" json:"downstream_estimate,omitempty"`
	DownstreamAcked    bool   `protobuf:"varint,13,opt,name=downstream_acked,json=downstreamAcked,proto3" json:"downstream_acked,omitempty"`
	Estimate           int32  `protobuf:"varint,14,opt,name=estimate,proto3" json:"estimate,omitempty"`
	Rotated            int32  `protobuf:"varint,15,opt,name=rotated,proto3" json:"rotated,omitempty"`
	Status             string `protobuf:"bytes,16,opt,name=status,proto3" json:"status,omitempty"`
	DownstreamReported bool   `protobuf:"varint,17,opt,name=downstream_reported,json=downstreamReported,proto3" json:"downstream_reported,omitempty"`
	StartUnixNano      int64  `protobuf:"varint,18,opt,name=start_unix_nano,json=startUnixNano,proto3" json:"start_unix_nano,omitempty"`
	DurationNano       int64  `protobuf:"varint,19,opt,name=duration_nano,json=durationNano,proto3" json:"duration_nano,omitempty"`
	Error              string `protobuf:"bytes,20,opt,name=error,proto3" json:"error,omitempty"`
}

// NewMessage implements Message.
func (m *CycleEvent) NewMessage() framework.Message { return &CycleEvent{} }

// TypeID implements SerializableMessage.
func (m *CycleEvent) TypeID() uint32 { return CycleEventTypeID }

// Serializable implements SerializableMessage.
func (m *CycleEvent) Serializable() proto.Message { return m }

// ProtoMessage implements proto.Message.
func (m *CycleEvent) ProtoMessage() {}

// Reset implements proto.Message.
func (m *CycleEvent) Reset() { *m = CycleEvent{} }

// String implements proto.Message.
func (m *CycleEvent) String() string { return proto.CompactTextString(m) }
