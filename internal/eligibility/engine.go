// Package eligibility 根据定位结果、围栏判定和远程办公许可计算能否打卡。
package eligibility

import (
	"GeoAttend/internal/geofence"
	"GeoAttend/internal/model"
)

// Reason 判定原因
type Reason string

const (
	WithinOfficeZone                   Reason = "withinOfficeZone"
	RemoteWorkApproved                 Reason = "remoteWorkApproved"
	OutsideZoneNoGrant                 Reason = "outsideZoneNoGrant"
	RemoteWorkApprovedLocationDegraded Reason = "remoteWorkApprovedLocationDegraded"
	LocationUnavailableNoGrant         Reason = "locationUnavailableNoGrant"
)

var messages = map[Reason]string{
	WithinOfficeZone:                   "You are inside an office zone.",
	RemoteWorkApproved:                 "You are outside the office zones, but you have an approved remote-work request for today.",
	OutsideZoneNoGrant:                 "You are outside every office zone and have no approved remote-work request for today.",
	RemoteWorkApprovedLocationDegraded: "Your location could not be determined, but you have an approved remote-work request.",
	LocationUnavailableNoGrant:         "Your location could not be determined and you have no approved remote-work request.",
}

var remediations = map[Reason]string{
	OutsideZoneNoGrant:         "Move closer to an office zone or submit a remote-work request.",
	LocationUnavailableNoGrant: "Grant location permission and try again, or submit a remote-work request.",
}

// Message 面向用户的说明
func (r Reason) Message() string {
	return messages[r]
}

// Remediation 无法打卡时的处理建议，可以打卡时为空
func (r Reason) Remediation() string {
	return remediations[r]
}

// Input 一次判定的输入；Location 为 nil 表示定位失败
type Input struct {
	Location *model.Coordinate
	Geofence geofence.Result
	HasGrant bool
}

// Verdict 判定结果，不落库
type Verdict struct {
	Nearest                 *geofence.Match `json:"nearest,omitempty"`
	Reason                  Reason          `json:"reason"`
	CanAttend               bool            `json:"can_attend"`
	UsedRemoteWorkException bool            `json:"used_remote_work_exception"`
}

// Compute 纯函数。定位成功时 Nearest 取围栏结果；定位失败时忽略 Geofence
func Compute(in Input) Verdict {
	if in.Location == nil {
		if in.HasGrant {
			return Verdict{CanAttend: true, Reason: RemoteWorkApprovedLocationDegraded, UsedRemoteWorkException: true}
		}
		return Verdict{CanAttend: false, Reason: LocationUnavailableNoGrant}
	}

	v := Verdict{Nearest: in.Geofence.Nearest}
	switch {
	case in.Geofence.WithinAny:
		v.CanAttend, v.Reason = true, WithinOfficeZone
	case in.HasGrant:
		v.CanAttend, v.Reason, v.UsedRemoteWorkException = true, RemoteWorkApproved, true
	default:
		v.CanAttend, v.Reason = false, OutsideZoneNoGrant
	}
	return v
}
