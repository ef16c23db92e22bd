package nats

import (
	"testing"

	"github.com/micro/go-clock/broker"
	natsp "github.com/nats-io/nats.go"
)

var addrTestCases = []struct {
	name        string
	description string
	addrs       map[string]string // expected address : set address
}{
	{
		"brokerOpts",
		"set broker addresses through a broker.Option",
		map[string]string{
			"nats://192.168.10.1:5222": "192.168.10.1:5222",
			"nats://10.20.10.0:4222":   "10.20.10.0:4222",
		},
	},
	{
		"natsOpts",
		"set broker addresses through the nats.Options",
		map[string]string{
			"nats://192.168.10.1:5222": "192.168.10.1:5222",
			"nats://10.20.10.0:4222":   "10.20.10.0:4222",
		},
	},
	{
		"default",
		"check if default Address is set correctly",
		map[string]string{
			"nats://127.0.0.1:4222": "",
		},
	},
}

func TestInitAddrs(t *testing.T) {
	for _, tc := range addrTestCases {
		t.Run(tc.name, func(t *testing.T) {
			var br broker.Broker
			var addrs []string

			for _, addr := range tc.addrs {
				if len(addr) > 0 {
					addrs = append(addrs, addr)
				}
			}

			switch tc.name {
			case "brokerOpts":
				// we know that there are just two addrs in the dict
				br = NewBroker(broker.Addrs(addrs[0], addrs[1]))
			case "natsOpts":
				nopts := natsp.GetDefaultOptions()
				nopts.Servers = addrs
				br = NewBroker(Options(nopts))
			case "default":
				br = NewBroker()
			}

			nb, ok := br.(*natsBroker)
			if !ok {
				t.Fatal("Expected broker to be of types *natsBroker")
			}
			// check if the same amount of addrs we set has actually been set
			if len(nb.addrs) != len(tc.addrs) {
				t.Errorf("Expected Addr count = %d, Actual Addr count = %d",
					len(tc.addrs), len(nb.addrs))
			}

			for _, addr := range nb.addrs {
				_, ok := tc.addrs[addr]
				if !ok {
					t.Errorf("Expected '%s' has not been set", addr)
				}
			}
		})
	}
}
