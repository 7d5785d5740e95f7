// Package msgs defines the messages a board publishes, serialized with
// protobuf inside a Typed envelope.
package msgs

import (
	"errors"
	"fmt"

	"github.com/golang/protobuf/proto"

	"github.com/robotalks/flapchain/pkg/framework"
)

// TypeID masks
const (
	TypeIDMaskKind  uint32 = 0x80000000
	TypeIDMaskGroup uint32 = 0x7fff0000
	TypeIDMaskID    uint32 = 0x0000ffff
)

// Message kinds
const (
	TypeIDKindCommand uint32 = 0x00000000
	TypeIDKindEvent   uint32 = 0x80000000
)

// TypeIDGroupChain is the group of chain messages.
const TypeIDGroupChain uint32 = 0x00010000

// ErrNotSerializable indicates the message can't be put in a Typed.
var ErrNotSerializable = errors.New("not serializable message")

// UnknownTypeError indicates an unregistered type id.
type UnknownTypeError struct {
	TypeID uint32
}

// Error implements error.
func (e *UnknownTypeError) Error() string {
	return fmt.Sprintf("unknown type: %x", e.TypeID)
}

// SerializableMessage can be serialized over the wire.
type SerializableMessage interface {
	framework.Message
	TypeID() uint32
	Serializable() proto.Message
}

// MessageTypes maps type ids to messages.
var MessageTypes = map[uint32]SerializableMessage{
	CycleEventTypeID: (*CycleEvent)(nil),
}

// Typed wraps a message with its type id.
type Typed struct {
	TypeId  uint32 `protobuf:"varint,1,opt,name=type_id,json=typeId,proto3" json:"type_id,omitempty"`
	Message []byte `protobuf:"bytes,2,opt,name=message,proto3" json:"message,omitempty"`
}

// ProtoMessage implements proto.Message.
func (p *Typed) ProtoMessage() {}

// Reset implements proto.Message.
func (p *Typed) Reset() { *p = Typed{} }

// String implements proto.Message.
func (p *Typed) String() string { return proto.CompactTextString(p) }

// TypedFrom wraps a serializable message.
func TypedFrom(msg framework.Message) (*Typed, error) {
	s, ok := msg.(SerializableMessage)
	if !ok {
		return nil, ErrNotSerializable
	}
	data, err := proto.Marshal(s.Serializable())
	if err != nil {
		return nil, err
	}
	return &Typed{TypeId: s.TypeID(), Message: data}, nil
}

// Encode marshals msg in a Typed envelope.
func Encode(msg framework.Message) ([]byte, error) {
	typed, err := TypedFrom(msg)
	if err != nil {
		return nil, err
	}
	return proto.Marshal(typed)
}

// Decode unmarshals a Typed envelope and the message inside.
func Decode(data []byte) (framework.Message, error) {
	var typed Typed
	if err := proto.Unmarshal(data, &typed); err != nil {
		return nil, err
	}
	return typed.Decode()
}

// Decode decodes the wrapped message.
func (p *Typed) Decode() (framework.Message, error) {
	msgType, ok := MessageTypes[p.TypeId]
	if !ok {
		return nil, &UnknownTypeError{TypeID: p.TypeId}
	}
	msg := msgType.NewMessage()
	if err := proto.Unmarshal(p.Message, msg.(SerializableMessage).Serializable()); err != nil {
		return nil, err
	}
	return msg, nil
}

// IsEvent determines if the message is an event.
func (p *Typed) IsEvent() bool {
	return p.TypeId&TypeIDMaskKind == TypeIDKindEvent
}
