package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNotifier_OrderAndCancel(t *testing.T) {
	var n notifier[int]
	var got []string

	cancelA := n.subscribe(func(v int) { got = append(got, "a") })
	n.subscribe(func(v int) { got = append(got, "b") })

	n.publish(1)
	cancelA()
	cancelA()
	n.publish(2)

	assert.Equal(t, []string{"a", "b", "b"}, got)
}

func TestNotifier_SubscribeDuringPublish(t *testing.T) {
	var n notifier[int]
	calls := 0
	n.subscribe(func(int) {
		calls++
		n.subscribe(func(int) { calls++ })
	})

	n.publish(1)
	assert.Equal(t, 1, calls, "late subscribers wait for the next event")
}
