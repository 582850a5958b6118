package station

import (
	"errors"
	"fmt"
	"os"

	"iwled/internal/models"

	"github.com/mdlayher/wifi"
)

// NL80211Source reads interfaces and stations over nl80211.
type NL80211Source struct {
	client *wifi.Client
}

func NewNL80211Source() (*NL80211Source, error) {
	c, err := wifi.New()
	if err != nil {
		return nil, fmt.Errorf("failed to open nl80211: %w", err)
	}
	return &NL80211Source{client: c}, nil
}

func (s *NL80211Source) Interfaces() ([]Interface, error) {
	ifis, err := s.client.Interfaces()
	if err != nil {
		return nil, err
	}

	out := make([]Interface, 0, len(ifis))
	for _, ifi := range ifis {
		// P2P device interfaces have no netdev and no stations
		if ifi.Name == "" {
			continue
		}
		out = append(out, &nlInterface{client: s.client, ifi: ifi})
	}
	return out, nil
}

func (s *NL80211Source) Close() error {
	return s.client.Close()
}

type nlInterface struct {
	client *wifi.Client
	ifi    *wifi.Interface
}

func (i *nlInterface) Name() string {
	return i.ifi.Name
}

func (i *nlInterface) Stations() ([]Station, error) {
	infos, err := i.client.StationInfo(i.ifi)
	if err != nil {
		// no associated stations, or not an AP
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}

	stations := make([]Station, 0, len(infos))
	for _, info := range infos {
		st := Station{Address: info.HardwareAddr.String()}
		// the kernel leaves the attribute out when it has no signal;
		// 0 dBm is not a real reading
		if info.Signal != 0 {
			r := models.Reading(info.Signal)
			st.Signal = &r
		}
		stations = append(stations, st)
	}
	return stations, nil
}
