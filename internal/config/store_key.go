package config

import "fmt"

type StoreKeyStruct struct{}

func NewStoreKeyStruct() *StoreKeyStruct {
	return &StoreKeyStruct{}
}

// FormKey returns the store key holding the working forest.
func (r *StoreKeyStruct) FormKey(base string) string {
	return base
}

// SubmissionKey returns the store key holding the last submitted forest.
func (r *StoreKeyStruct) SubmissionKey(base string) string {
	return fmt.Sprintf("%s:submitted", base)
}

var StoreKey = NewStoreKeyStruct()
