// Package mqtt provides MQTT client connectivity for FieldSense Core.
//
// This package manages:
//   - Connections to per-tenant brokers (one client per tenant session)
//   - Message publishing with QoS guarantees and bounded ack waits
//   - Topic subscriptions with wildcard support
//   - A bounded readiness wait (AwaitConnected) for publish gating
//
// # Architecture
//
// Each tenant's connection session owns exactly one Client, built from the
// broker credential the tenant's subscription rules reference. The client
// deliberately does NOT reconnect on its own: a dropped connection leaves
// the client disconnected until the session is explicitly restarted, so the
// recorded session state always matches reality.
//
//	FieldSense Core ↔ MQTT Broker (EMQX/Mosquitto) ↔ Field Devices
//
// # Security Considerations
//
//   - TLS is recommended for production deployments (Options.TLS=true)
//   - Credentials are validated against the broker ACL
//   - Anonymous access is only for local development
//   - Message payloads are not encrypted beyond TLS transport
//
// # Usage
//
//	client, err := mqtt.Connect(mqtt.Options{
//	    Host:     cred.Host,
//	    Port:     cred.Port,
//	    ClientID: "fieldsense-core-tenant-7",
//	    Username: cred.Username,
//	    Password: cred.Password,
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer client.Close()
//
//	err = client.Subscribe("tenant-7/+/telemetry", 1,
//	    func(topic string, payload []byte) error {
//	        log.Printf("Received: %s = %s", topic, payload)
//	        return nil
//	    })
package mqtt
