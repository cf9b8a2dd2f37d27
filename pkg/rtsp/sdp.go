package rtsp

import (
	"sync"

	"github.com/pion/sdp/v3"
)

// placeholderSDP is the description returned by DESCRIBE. It does not come from a live source.
var placeholderSDP = sync.OnceValues(func() ([]byte, error) {
	desc := &sdp.SessionDescription{
		Version: 0,
		Origin: sdp.Origin{
			Username:       "-",
			SessionID:      0,
			SessionVersion: 0,
			NetworkType:    "IN",
			AddressType:    "IP4",
			UnicastAddress: "127.0.0.1",
		},
		SessionName: "No Name",
		TimeDescriptions: []sdp.TimeDescription{
			{Timing: sdp.Timing{StartTime: 0, StopTime: 0}},
		},
		MediaDescriptions: []*sdp.MediaDescription{
			{
				MediaName: sdp.MediaName{
					Media:   "video",
					Port:    sdp.RangedPort{Value: 0},
					Protos:  []string{"RTP", "AVP"},
					Formats: []string{"96"},
				},
				Attributes: []sdp.Attribute{
					sdp.NewAttribute("control", "streamid=0"),
					sdp.NewAttribute("rtpmap", "96 H264/90000"),
				},
			},
		},
	}

	return desc.Marshal()
})
