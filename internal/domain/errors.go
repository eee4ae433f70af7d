package domain

import "github.com/pkg/errors"

var (
	// ErrInsufficientData bar history is shorter than the long window requires.
	// Fatal for the tick, retried on the next one.
	ErrInsufficientData = errors.New("insufficient bar history")

	// ErrInsufficientFunds free quote balance is below the minimum tradable amount.
	ErrInsufficientFunds = errors.New("insufficient funds")

	// ErrExecutionUnconfirmed an order was submitted but the balance re-check
	// did not confirm it. No state was mutated; the next tick reconciles.
	ErrExecutionUnconfirmed = errors.New("execution unconfirmed")

	// ErrRemoteUnavailable a provider call exhausted its retry budget.
	ErrRemoteUnavailable = errors.New("remote unavailable")

	// ErrAlreadyInPosition enterPosition was called with a position open (caller bug).
	ErrAlreadyInPosition = errors.New("already in position")

	// ErrNotInPosition exitPosition was called while flat (caller bug).
	ErrNotInPosition = errors.New("not in position")
)
