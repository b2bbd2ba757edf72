package model

import "time"

// DeviceRecord — зарегистрированный фактор аутентификации пользователя.
type DeviceRecord struct {
	// ID — идентификатор фактора в Okta
	ID string
	// FactorType — тип фактора (push, sms, token:software:totp, webauthn, ...)
	FactorType string
	// Provider — поставщик фактора (OKTA, GOOGLE, ...)
	Provider string
	// Status — статус регистрации (ACTIVE, PENDING_ACTIVATION, ...)
	Status string
	// Created — время регистрации
	Created time.Time
	// LastUpdated — время последнего изменения
	LastUpdated time.Time
	// Profile — атрибуты, зависящие от типа фактора. Никогда не nil.
	Profile map[string]any
}

// DeviceList — список факторов пользователя. Count всегда равен len(Devices).
type DeviceList struct {
	Devices []*DeviceRecord
	Count   int
}

// NewDeviceList создаёт DeviceList; nil превращается в пустой срез.
func NewDeviceList(devices []*DeviceRecord) *DeviceList {
	if devices == nil {
		devices = []*DeviceRecord{}
	}
	return &DeviceList{Devices: devices, Count: len(devices)}
}

// AggregatedUserView — пользователь вместе с его факторами.
// DeviceCount всегда равен len(Devices).
type AggregatedUserView struct {
	User        *UserRecord
	Devices     []*DeviceRecord
	DeviceCount int
}

// NewAggregatedUserView создаёт AggregatedUserView; nil-список факторов превращается в пустой.
func NewAggregatedUserView(user *UserRecord, devices []*DeviceRecord) *AggregatedUserView {
	if devices == nil {
		devices = []*DeviceRecord{}
	}
	return &AggregatedUserView{User: user, Devices: devices, DeviceCount: len(devices)}
}
