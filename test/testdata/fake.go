package testdata

import (
	"github.com/brianvoe/gofakeit/v7"
)

func RandomName() string {
	return gofakeit.AppName()
}

func RandomDescription() string {
	return gofakeit.Sentence(10)
}

func RandomQuestion() string {
	return gofakeit.Question()
}

func RandomTag() string {
	return gofakeit.Noun()
}

func RandomNodeMessage() string {
	return gofakeit.Sentence(6)
}
