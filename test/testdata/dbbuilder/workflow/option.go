package workflowbuilder

import "time"

type Option func(*FactoryParams)

func WithName(name string) Option {
	return func(p *FactoryParams) {
		p.Name = name
	}
}

func WithActive(active bool) Option {
	return func(p *FactoryParams) {
		p.IsActive = active
	}
}

func WithTags(tags ...string) Option {
	return func(p *FactoryParams) {
		p.Tags = tags
	}
}

func WithCategory(category string) Option {
	return func(p *FactoryParams) {
		p.Category = category
	}
}

func WithUpdatedAt(updatedAt time.Time) Option {
	return func(p *FactoryParams) {
		p.UpdatedAt = updatedAt
	}
}
