// Package mqtt bridges the bot to an MQTT broker: job lifecycle events are
// published and other services can query pending jobs with request/response.
package mqtt

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/PancyStudios/PancyModGo/pkg/logger"
	"github.com/goccy/go-json"
	"github.com/google/uuid"

	mqtt "github.com/eclipse/paho.mqtt.golang"
)

const (
	requestPrefix  = "pancy/request/"
	responsePrefix = "pancy/response/"
)

// MqttRequest represents an MQTT request message
type MqttRequest struct {
	CorrelationID string      `json:"correlationId"`
	Payload       interface{} `json:"payload,omitempty"`
}

// MqttResponse represents an MQTT response message
type MqttResponse struct {
	CorrelationID string      `json:"correlationId"`
	Data          interface{} `json:"data"`
	Error         string      `json:"error,omitempty"`
}

// MqttCommunicator handles MQTT communication
type MqttCommunicator struct {
	client   mqtt.Client
	clientID string
}

var (
	communicator *MqttCommunicator
	once         sync.Once
)

// Init initializes the global MQTT communicator
func Init(host, port, username, password, clientID string) *MqttCommunicator {
	once.Do(func() {
		communicator = NewMqttCommunicator(host, port, username, password, clientID)
	})
	return communicator
}

// Get returns the global MQTT communicator
func Get() *MqttCommunicator {
	return communicator
}

// NewMqttCommunicator connects to the broker. A failed first connection is
// retried in the background.
func NewMqttCommunicator(host, port, username, password, clientID string) *MqttCommunicator {
	mc := &MqttCommunicator{clientID: clientID}

	uniqueID := fmt.Sprintf("%s_%s", clientID, uuid.New().String())

	opts := mqtt.NewClientOptions().
		AddBroker(fmt.Sprintf("tcp://%s:%s", host, port)).
		SetClientID(uniqueID).
		SetUsername(username).
		SetPassword(password).
		SetAutoReconnect(true).
		SetConnectRetry(true).
		SetConnectRetryInterval(5 * time.Second).
		SetOnConnectHandler(func(c mqtt.Client) {
			logger.Success(fmt.Sprintf("Conectado al broker MQTT como %s", clientID), "MQTT")
		}).
		SetConnectionLostHandler(func(c mqtt.Client, err error) {
			logger.Error(fmt.Sprintf("Conexión MQTT perdida: %v", err), "MQTT")
		})

	mc.client = mqtt.NewClient(opts)

	token := mc.client.Connect()
	if token.WaitTimeout(10*time.Second) && token.Error() != nil {
		logger.Error(fmt.Sprintf("Error de conexión MQTT: %v", token.Error()), "MQTT")
	}

	return mc
}

// Destroy closes the MQTT connection
func (mc *MqttCommunicator) Destroy() {
	if mc.client != nil && mc.client.IsConnected() {
		mc.client.Disconnect(250)
		logger.System("Conexión MQTT cerrada exitosamente.", "MQTT")
	} else {
		logger.Warn("El cliente MQTT no estaba conectado, no se necesita cerrar.", "MQTT")
	}
}

// IsConnected returns true if connected to the broker
func (mc *MqttCommunicator) IsConnected() bool {
	return mc.client != nil && mc.client.IsConnected()
}

// Publish sends a JSON message to a topic
func (mc *MqttCommunicator) Publish(topic string, payload interface{}) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal payload: %w", err)
	}

	token := mc.client.Publish(topic, 0, false, data)
	if !token.WaitTimeout(5 * time.Second) {
		return fmt.Errorf("publish to %s timed out", topic)
	}
	return token.Error()
}

// RequestHandler is a function type for handling MQTT requests
type RequestHandler func(payload map[string]interface{}) (interface{}, error)

// On answers requests sent to pancy/request/<requestTopic>. The reply goes to
// pancy/response/<requestTopic>/<correlationId>.
func (mc *MqttCommunicator) On(requestTopic string, callback RequestHandler) {
	topic := requestPrefix + requestTopic

	token := mc.client.Subscribe(topic, 0, func(c mqtt.Client, msg mqtt.Message) {
		responseTopic, response, err := handleRequest(msg.Topic(), msg.Payload(), callback)
		if err != nil {
			logger.Error(fmt.Sprintf("Error parsing MQTT request: %v", err), "MQTT")
			return
		}
		if err := mc.Publish(responseTopic, response); err != nil {
			logger.Error(fmt.Sprintf("Error respondiendo a %s: %v", responseTopic, err), "MQTT")
		}
	})

	if token.Wait() && token.Error() != nil {
		logger.Error(fmt.Sprintf("Error subscribing to topic %s: %v", topic, token.Error()), "MQTT")
	}
}

// handleRequest decodes a request, runs callback and builds the response
func handleRequest(receivedTopic string, raw []byte, callback RequestHandler) (string, MqttResponse, error) {
	var request MqttRequest
	if err := json.Unmarshal(raw, &request); err != nil {
		return "", MqttResponse{}, err
	}

	actualTopic := strings.TrimPrefix(receivedTopic, requestPrefix)
	responseTopic := fmt.Sprintf("%s%s/%s", responsePrefix, actualTopic, request.CorrelationID)

	payloadMap, ok := request.Payload.(map[string]interface{})
	if !ok {
		payloadMap = make(map[string]interface{})
	}
	payloadMap["_topic"] = actualTopic

	data, err := callback(payloadMap)
	if err != nil {
		return responseTopic, MqttResponse{CorrelationID: request.CorrelationID, Error: err.Error()}, nil
	}
	return responseTopic, MqttResponse{CorrelationID: request.CorrelationID, Data: data}, nil
}
