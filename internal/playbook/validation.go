package playbook

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	derrors "git.home.luguber.info/inful/docsite/internal/errors"
)

var (
	validExtensionStyles = map[string]bool{"default": true, "drop": true, "indexify": true}
	validFacilities      = map[RedirectFacility]bool{RedirectStatic: true, RedirectNetlify: true, RedirectNginx: true, RedirectDisabled: true}
	validProviders       = map[string]bool{"fs": true, "archive": true}
	validLogLevels       = map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	validLogFormats      = map[string]bool{"text": true, "json": true}
	validAuthTypes       = map[AuthType]bool{"": true, AuthTypeNone: true, AuthTypeToken: true, AuthTypeBasic: true, AuthTypeSSH: true}
)

type validator func(pb *Playbook) error

func validate(pb *Playbook) error {
	for _, v := range []validator{validateSite, validateContent, validateURLs, validateOutput, validateRuntime, validateNotify} {
		if err := v(pb); err != nil {
			return err
		}
	}
	return nil
}

func validateSite(pb *Playbook) error {
	if pb.Site.URL == "" {
		return nil
	}
	u, err := url.Parse(pb.Site.URL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return derrors.ConfigFieldInvalid("site.url", "must be an absolute http(s) URL")
	}
	pb.Site.URL = strings.TrimRight(pb.Site.URL, "/")
	return nil
}

func validateContent(pb *Playbook) error {
	if len(pb.Content.Sources) == 0 {
		return derrors.ConfigRequired("content.sources")
	}
	for i, src := range pb.Content.Sources {
		field := fmt.Sprintf("content.sources[%d]", i)
		if strings.TrimSpace(src.URL) == "" {
			return derrors.ConfigRequired(field + ".url")
		}
		if src.Auth != nil && !validAuthTypes[src.Auth.Type] {
			return derrors.ConfigFieldInvalid(field+".auth.type", fmt.Sprintf("unsupported auth type %q", src.Auth.Type))
		}
		for _, sp := range src.StartPaths {
			if strings.HasPrefix(sp, "/") || strings.HasPrefix(sp, "..") {
				return derrors.ConfigFieldInvalid(field+".start_paths", fmt.Sprintf("start path %q must stay inside the source", sp))
			}
		}
	}
	return nil
}

func validateURLs(pb *Playbook) error {
	if !validExtensionStyles[pb.URLs.HTMLExtensionStyle] {
		return derrors.ConfigFieldInvalid("urls.html_extension_style", fmt.Sprintf("unknown style %q", pb.URLs.HTMLExtensionStyle))
	}
	if !validFacilities[pb.URLs.RedirectFacility] {
		return derrors.ConfigFieldInvalid("urls.redirect_facility", fmt.Sprintf("unknown facility %q", pb.URLs.RedirectFacility))
	}
	return nil
}

func validateOutput(pb *Playbook) error {
	for i, d := range pb.Output.Destinations {
		field := fmt.Sprintf("output.destinations[%d]", i)
		if !validProviders[d.Provider] {
			return derrors.ConfigFieldInvalid(field+".provider", fmt.Sprintf("unknown provider %q", d.Provider))
		}
		if d.Path == "" {
			return derrors.ConfigRequired(field + ".path")
		}
	}
	return nil
}

func validateRuntime(pb *Playbook) error {
	if !validLogLevels[strings.ToLower(pb.Runtime.Log.Level)] {
		return derrors.ConfigFieldInvalid("runtime.log.level", fmt.Sprintf("unknown level %q", pb.Runtime.Log.Level))
	}
	if !validLogFormats[strings.ToLower(pb.Runtime.Log.Format)] {
		return derrors.ConfigFieldInvalid("runtime.log.format", fmt.Sprintf("unknown format %q", pb.Runtime.Log.Format))
	}
	r := pb.Runtime.Retry
	for field, raw := range map[string]string{"runtime.retry.initial": r.Initial, "runtime.retry.max": r.Max} {
		if d, err := time.ParseDuration(raw); err != nil || d <= 0 {
			return derrors.ConfigFieldInvalid(field, fmt.Sprintf("invalid duration %q", raw))
		}
	}
	if err := r.Policy().Validate(); err != nil {
		return derrors.Wrap(err, derrors.CategoryConfig, derrors.SeverityFatal, "invalid retry policy")
	}
	return nil
}

func validateNotify(pb *Playbook) error {
	if pb.Notify.NATS.URL == "" {
		return nil
	}
	u, err := url.Parse(pb.Notify.NATS.URL)
	if err != nil || u.Scheme == "" {
		return derrors.ConfigFieldInvalid("notify.nats.url", "must be a URL such as nats://host:4222")
	}
	return nil
}
