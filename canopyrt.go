/*
Copyright © 2017 the canopyrt authors.
This file is part of canopyrt.

canopyrt is free software: you can redistribute it and/or modify
it under the terms of the GNU General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.

canopyrt is distributed in the hope that it will be useful,
but WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
GNU General Public License for more details.

You should have received a copy of the GNU General Public License
along with canopyrt.  If not, see <http://www.gnu.org/licenses/>.
*/

// Package canopyrt calculates radiation fluxes through a vertically
// layered vegetation canopy. The reflectance and transmittance of each
// layer are calculated with the two-stream equations of Meador and
// Weaver (1980) and the layers are combined with the adding method.
// If the canopy is vertically homogeneous the results are identical to
// those of the Sellers (1985) two-stream model.
package canopyrt

// Version gives the version number.
const Version = "1.0.0"
