package redis

import (
	"strconv"

	"github.com/mcoot/threestones/internal/model"
)

// DefaultKeyPrefix namespaces every key the room server writes
const DefaultKeyPrefix = "tstones"

// keyspace builds the Redis keys under one prefix. Layout:
//
//	<prefix>:room:<code>              JSON RoomRecord
//	<prefix>:idx:rooms_by_created     ZSET of codes scored by unix millis
//	<prefix>:user:<id>                username
//	<prefix>:idx:username:<name>      user id
type keyspace struct {
	prefix string
}

func newKeyspace(prefix string) keyspace {
	if prefix == "" {
		prefix = DefaultKeyPrefix
	}
	return keyspace{prefix: prefix}
}

func (k keyspace) room(code model.RoomCode) string {
	return k.prefix + ":room:" + string(code)
}

func (k keyspace) roomsByCreated() string {
	return k.prefix + ":idx:rooms_by_created"
}

func (k keyspace) user(id model.UserID) string {
	return k.prefix + ":user:" + strconv.FormatInt(int64(id), 10)
}

func (k keyspace) username(name string) string {
	return k.prefix + ":idx:username:" + name
}
