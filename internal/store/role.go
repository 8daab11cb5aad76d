package store

type Role int64

const (
	Member Role = iota + 1
	Admin
	Superuser
)
