package domain

type PoolCapacity struct {
	MaxAllowed  int
	ActiveCount int
}

func (c PoolCapacity) Free() int {
	return c.MaxAllowed - c.ActiveCount
}
