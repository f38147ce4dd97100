package cache

import (
	"errors"
	"testing"

	"github.com/matryer/is"
)

func TestLoadCallsOnce(t *testing.T) {
	is := is.New(t)
	c := New[int](0)
	calls := 0
	load := func(key string) (int, error) {
		calls++
		return len(key), nil
	}
	v, err := c.Load("N:AKQ", load)
	is.NoErr(err)
	is.Equal(v, 5)
	v, err = c.Load("N:AKQ", load)
	is.NoErr(err)
	is.Equal(v, 5)
	is.Equal(calls, 1)
}

func TestLoadErrorNotCached(t *testing.T) {
	is := is.New(t)
	c := New[string](0)
	boom := errors.New("boom")
	_, err := c.Load("x", func(string) (string, error) { return "", boom })
	is.True(errors.Is(err, boom))
	is.Equal(c.Len(), 0)
}

func TestEvictsOldest(t *testing.T) {
	is := is.New(t)
	c := New[int](2)
	c.Put("a", 1)
	c.Put("b", 2)
	c.Put("a", 10) // update does not grow the cache
	c.Put("c", 3)
	_, ok := c.Get("a")
	is.True(!ok)
	v, ok := c.Get("b")
	is.True(ok)
	is.Equal(v, 2)
	is.Equal(c.Len(), 2)
}
