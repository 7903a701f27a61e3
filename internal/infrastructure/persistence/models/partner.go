package models

import (
	"github.com/invoicedesk/backend/internal/domain/partner"
)

// CustomerModel is the persistence model for partner.Customer
type CustomerModel struct {
	AggregateModel
	Name             string `gorm:"type:varchar(255);not null;index"`
	CreditPeriodDays int    `gorm:"not null;default:0"`
	BusinessPhone    string `gorm:"type:varchar(32)"`
	OwnerPhone       string `gorm:"type:varchar(32)"`
	Email            string `gorm:"type:varchar(255)"`
	Address          string `gorm:"type:text"`
}

// TableName returns the table name for CustomerModel
func (CustomerModel) TableName() string {
	return "customers"
}

// ToDomain converts CustomerModel to a domain Customer
func (m *CustomerModel) ToDomain() *partner.Customer {
	c := &partner.Customer{
		Name:             m.Name,
		CreditPeriodDays: m.CreditPeriodDays,
		BusinessPhone:    m.BusinessPhone,
		OwnerPhone:       m.OwnerPhone,
		Email:            m.Email,
		Address:          m.Address,
	}
	m.AggregateModel.PopulateAggregateRoot(&c.BaseAggregateRoot)
	return c
}

// CustomerModelFromDomain converts a domain Customer to CustomerModel
func CustomerModelFromDomain(c *partner.Customer) *CustomerModel {
	model := &CustomerModel{
		Name:             c.Name,
		CreditPeriodDays: c.CreditPeriodDays,
		BusinessPhone:    c.BusinessPhone,
		OwnerPhone:       c.OwnerPhone,
		Email:            c.Email,
		Address:          c.Address,
	}
	model.FromDomainAggregateRoot(c.BaseAggregateRoot)
	return model
}
