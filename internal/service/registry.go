package service

import (
	"fmt"

	"arkhive.dev/hearth/pkg/eventemitter"
)

// Registry tracks the available services and broadcasts their session
// changes to whoever subscribes. It replaces any notion of a process-wide
// service table: callers receive a registry by reference.
type Registry struct {
	services map[string]Service
	order    []string

	// Event emitters
	LoginEventEmitter  *eventemitter.EventEmitter[Service]
	LogoutEventEmitter *eventemitter.EventEmitter[Service]
}

func NewRegistry() (instance *Registry) {
	instance = &Registry{
		services:           map[string]Service{},
		LoginEventEmitter:  &eventemitter.EventEmitter[Service]{},
		LogoutEventEmitter: &eventemitter.EventEmitter[Service]{},
	}
	return
}

func (registry *Registry) Register(service Service) (err error) {
	if _, ok := registry.services[service.ID()]; ok {
		err = fmt.Errorf("service %s already registered", service.ID())
		return
	}
	registry.services[service.ID()] = service
	registry.order = append(registry.order, service.ID())
	return
}

func (registry *Registry) Get(id string) (service Service, ok bool) {
	service, ok = registry.services[id]
	return
}

// All returns the services in registration order.
func (registry *Registry) All() (services []Service) {
	for _, id := range registry.order {
		services = append(services, registry.services[id])
	}
	return
}

func (registry *Registry) NotifyLogin(service Service) {
	registry.LoginEventEmitter.Emit(service)
}

func (registry *Registry) NotifyLogout(service Service) {
	registry.LogoutEventEmitter.Emit(service)
}
