package bus

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChannelDeliversInSubscriptionOrder(t *testing.T) {
	c := NewChannel[int]()
	var got []string
	c.Subscribe(func(v int) { got = append(got, "a") })
	c.Subscribe(func(v int) { got = append(got, "b") })

	c.Publish(1)
	assert.Equal(t, []string{"a", "b"}, got)
}

func TestChannelOnceFiresOnce(t *testing.T) {
	c := NewChannel[int]()
	calls := 0
	c.Once(func(int) { calls++ })

	c.Publish(1)
	c.Publish(2)
	assert.Equal(t, 1, calls)
	assert.Equal(t, 0, c.Len())
}

func TestChannelOnceReentrantPublish(t *testing.T) {
	c := NewChannel[int]()
	calls := 0
	c.Once(func(v int) {
		calls++
		if v == 1 {
			c.Publish(2)
		}
	})

	c.Publish(1)
	assert.Equal(t, 1, calls)
}

func TestSubscriptionCancel(t *testing.T) {
	c := NewChannel[string]()
	var got []string
	sub := c.Subscribe(func(s string) { got = append(got, s) })

	c.Publish("x")
	sub.Cancel()
	sub.Cancel()
	c.Publish("y")

	assert.Equal(t, []string{"x"}, got)
	assert.Equal(t, 0, c.Len())
}

func TestSubscribeDuringPublishAppliesNextTime(t *testing.T) {
	c := NewChannel[int]()
	late := 0
	c.Subscribe(func(int) {
		c.Subscribe(func(int) { late++ })
	})

	c.Publish(1)
	assert.Equal(t, 0, late)
	c.Publish(2)
	assert.Equal(t, 1, late)
}

func TestValueNotifiesOnChangeOnly(t *testing.T) {
	v := NewValue(0)
	var seen []int
	v.Subscribe(func(x int) { seen = append(seen, x) })

	v.Set(0)
	v.Set(3)
	v.Set(3)
	got := v.Update(func(x int) int { return x + 1 })

	assert.Equal(t, 4, got)
	assert.Equal(t, 4, v.Get())
	assert.Equal(t, []int{3, 4}, seen)
}

func TestQueueDrainConcurrentProducers(t *testing.T) {
	var q Queue[int]
	var wg sync.WaitGroup
	for p := 0; p < 8; p++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 100; i++ {
				q.Push(i)
			}
		}()
	}
	wg.Wait()

	require.Equal(t, 800, q.Len())
	items := q.Drain()
	assert.Len(t, items, 800)
	assert.Nil(t, q.Drain())
	assert.Equal(t, 0, q.Len())
}
